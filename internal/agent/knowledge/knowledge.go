// Package knowledge holds the curated fact sheets, few-shot examples and
// crop/disease reference tables, and the keyword scoring that picks which of
// them go into a prompt.
package knowledge

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

//go:embed data/knowledge.yaml
var knowledgeYAML []byte

//go:embed data/reference.yaml
var referenceYAML []byte

type knowledgeFile struct {
	Items    []model.KnowledgeItem  `yaml:"items"`
	Examples []model.FewShotExample `yaml:"examples"`
}

// Base is the read-only knowledge set. Safe for concurrent use.
type Base struct {
	items     []model.KnowledgeItem
	examples  *Examples
	reference *Reference
}

// Load parses the embedded data files.
func Load() (*Base, error) {
	var kf knowledgeFile
	if err := yaml.Unmarshal(knowledgeYAML, &kf); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	ref, err := loadReference(referenceYAML)
	if err != nil {
		return nil, err
	}
	return &Base{
		items:     kf.Items,
		examples:  &Examples{items: kf.Examples},
		reference: ref,
	}, nil
}

// MustLoad panics if the embedded data is broken; it is compiled in, so that
// is a build defect rather than a runtime condition.
func MustLoad() *Base {
	b, err := Load()
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Base) Items() []model.KnowledgeItem { return b.items }
func (b *Base) Examples() *Examples         { return b.examples }
func (b *Base) Reference() *Reference       { return b.reference }

type scored[T any] struct {
	score int
	item  T
}

// sortScored orders by score descending, keeping data order for ties.
func sortScored[T any](s []scored[T]) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].score > s[j].score })
}

// score ranks one item against the lowercased query and its words.
func scoreItem(item model.KnowledgeItem, query string, words []string, interests []string) int {
	score := 0
	for _, tag := range item.Tags {
		tag = strings.ToLower(tag)
		if strings.Contains(query, tag) {
			score += 10
			continue
		}
		if len([]rune(tag)) <= 4 {
			continue
		}
		for _, w := range words {
			if len([]rune(w)) > 3 && (strings.Contains(w, tag) || strings.Contains(tag, w)) {
				score += 5
			}
		}
	}

	content := strings.ToLower(item.Content)
	for _, w := range words {
		if len([]rune(w)) > 3 && strings.Contains(content, w) {
			score += 2
		}
	}

	if item.Priority == model.PriorityHigh {
		score += 3
	}

	for _, interest := range interests {
		if slices.ContainsFunc(item.Tags, func(t string) bool { return strings.EqualFold(t, interest) }) {
			score += 5
		}
	}
	return score
}

// Retrieve renders the topK best-matching fact sheets, or "" when nothing scores.
func (b *Base) Retrieve(query string, interests []string, topK int) string {
	q := strings.ToLower(query)
	words := strings.Fields(q)

	var hits []scored[model.KnowledgeItem]
	for _, item := range b.items {
		if s := scoreItem(item, q, words, interests); s > 0 {
			hits = append(hits, scored[model.KnowledgeItem]{score: s, item: item})
		}
	}
	if len(hits) == 0 || topK <= 0 {
		logx.Debug().Str("query", query).Msg("no knowledge matched")
		return ""
	}
	sortScored(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}

	var sb strings.Builder
	sb.WriteString("\n\n**RELEVANT KNOWLEDGE FROM DATABASE:**\n")
	for _, h := range hits {
		logx.Debug().Str("topic", h.item.Topic).Int("score", h.score).Msg("knowledge matched")
		sb.WriteString("\n")
		sb.WriteString(h.item.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// PersonalizedContext renders what we remember about a farmer. First-time
// users (no history) get nothing.
func PersonalizedContext(uc *model.UserContext) string {
	if uc == nil || len(uc.QueryHistory) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n**USER CONTEXT:**\n")
	if len(uc.CropInterests) > 0 {
		interests := uc.CropInterests
		if len(interests) > 5 {
			interests = interests[:5]
		}
		fmt.Fprintf(&sb, "User's interests: %s\n", strings.Join(interests, ", "))
	}
	if uc.Location != "" {
		fmt.Fprintf(&sb, "Regular location: %s\n", uc.Location)
	}
	if n := len(uc.QueryHistory); n > 3 {
		fmt.Fprintf(&sb, "Active user (%d previous queries)\n", n)
	}
	return sb.String()
}
