package model

import (
	"context"
	"time"
)

// KnowledgeItem is one curated fact sheet.
type KnowledgeItem struct {
	Topic    string   `yaml:"topic"`
	Content  string   `yaml:"content"`
	Tags     []string `yaml:"tags"`
	Priority Priority `yaml:"priority"`
}

// FewShotExample is one reference question and answer.
type FewShotExample struct {
	Query      string     `yaml:"query"`
	Response   string     `yaml:"response"`
	Domain     string     `yaml:"domain"`
	Complexity Complexity `yaml:"complexity"`
}

// QuestionAnalysis is the keyword classification of a query.
type QuestionAnalysis struct {
	PrimaryType   QuestionType
	Complexity    Complexity
	NeedsLiveData bool
	NeedsSearch   bool
}

// HistoryEntry is one remembered query.
type HistoryEntry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// UserContext is the rolling per-user memory.
type UserContext struct {
	UserID          string         `json:"user_id"`
	QueryHistory    []HistoryEntry `json:"query_history"`
	CropInterests   []string       `json:"crop_interests"`
	Location        string         `json:"location,omitempty"`
	LastInteraction *time.Time     `json:"last_interaction,omitempty"`
}

// UserContextRepository persists user contexts.
type UserContextRepository interface {
	// Load returns the stored context, or nil when the user is unknown.
	Load(ctx context.Context, userID string) (*UserContext, error)

	// Save replaces the stored context.
	Save(ctx context.Context, uc *UserContext) error
}
