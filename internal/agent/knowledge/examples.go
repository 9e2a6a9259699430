package knowledge

import (
	"fmt"
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

// Examples are reference answers the model is shown to copy the tone of.
type Examples struct {
	items []model.FewShotExample
}

func (e *Examples) All() []model.FewShotExample { return e.items }

func scoreExample(ex model.FewShotExample, domain string, words []string) int {
	score := 0
	if domain != "" && strings.Contains(ex.Domain, domain) {
		score += 10
	}

	exWords := strings.Fields(strings.ToLower(ex.Query))
	for _, w := range words {
		if len([]rune(w)) <= 3 {
			continue
		}
		for _, ew := range exWords {
			if strings.Contains(ew, w) {
				score += 5
				break
			}
		}
	}

	resp := strings.ToLower(ex.Response)
	for _, w := range words {
		if len([]rune(w)) > 4 && strings.Contains(resp, w) {
			score += 2
			break
		}
	}
	return score
}

// Relevant renders the topK examples closest to the query. domain may be
// empty; when set, examples in that domain rank first.
func (e *Examples) Relevant(query, domain string, topK int) string {
	words := strings.Fields(strings.ToLower(query))

	var hits []scored[model.FewShotExample]
	for _, ex := range e.items {
		if s := scoreExample(ex, domain, words); s > 0 {
			hits = append(hits, scored[model.FewShotExample]{score: s, item: ex})
		}
	}
	if len(hits) == 0 || topK <= 0 {
		return ""
	}
	sortScored(hits)
	if len(hits) > topK {
		hits = hits[:topK]
	}

	var sb strings.Builder
	sb.WriteString("\n**LEARNING EXAMPLES (Your Training Data):**\n")
	for i, h := range hits {
		fmt.Fprintf(&sb, "\nExample %d:\nQ: %s\nA: %s...\n", i+1, h.item.Query, core.Truncate(h.item.Response, 300))
	}
	return sb.String()
}
