package conversations

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

// cropKeywords are remembered as interests when they appear in a query.
var cropKeywords = []string{"rice", "vegetable", "wheat", "potato", "jute", "tomato", "cabbage", "irrigation", "soil", "pest"}

const DefaultMaxHistory = 20

// UserContextManager owns the read-modify-write of per-user memory.
type UserContextManager struct {
	repo       model.UserContextRepository
	maxHistory int
	now        func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

func NewUserContextManager(repo model.UserContextRepository, config model.ConversationConfig) *UserContextManager {
	maxHistory := config.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &UserContextManager{
		repo:       repo,
		maxHistory: maxHistory,
		now:        time.Now,
	}
}

func (m *UserContextManager) lock(userID string) func() {
	v, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the stored context, or an empty one for users we have never seen.
func (m *UserContextManager) Get(ctx context.Context, userID string) (*model.UserContext, error) {
	uc, err := m.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if uc == nil {
		uc = &model.UserContext{UserID: userID}
	}
	return uc, nil
}

// Record appends a query to the user's history and refreshes what we know
// about them. location may be empty.
func (m *UserContextManager) Record(ctx context.Context, userID, query, location string) (*model.UserContext, error) {
	unlock := m.lock(userID)
	defer unlock()

	uc, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	uc.QueryHistory = trimTail(append(uc.QueryHistory, model.HistoryEntry{Query: query, Timestamp: now}), m.maxHistory)

	if location != "" {
		uc.Location = location
	}

	q := strings.ToLower(query)
	for _, crop := range cropKeywords {
		if strings.Contains(q, crop) && !slices.Contains(uc.CropInterests, crop) {
			uc.CropInterests = append(uc.CropInterests, crop)
		}
	}
	uc.LastInteraction = &now

	if err := m.repo.Save(ctx, uc); err != nil {
		return nil, err
	}
	logx.Debug().
		Str("userID", userID).
		Int("history", len(uc.QueryHistory)).
		Strs("interests", uc.CropInterests).
		Msg("user context updated")
	return uc, nil
}

// ====================== Helper function ======================
func trimTail[T any](items []T, max int) []T {
	if len(items) <= max {
		return items
	}
	source := items[len(items)-max:]
	result := make([]T, len(source))
	copy(result, source)
	return result
}
