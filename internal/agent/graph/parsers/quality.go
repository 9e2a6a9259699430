package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/chashi-bhai/server/internal/core"
)

// QualityScore grades an answer on four 25-point dimensions.
type QualityScore struct {
	Completeness       int
	Actionability      int
	AccuracyIndicators int
	Clarity            int
}

func (q QualityScore) Total() int {
	return q.Completeness + q.Actionability + q.AccuracyIndicators + q.Clarity
}

// NeedsRegeneration flags answers under half marks. It is informational.
func (q QualityScore) NeedsRegeneration() bool {
	return q.Total() < 50
}

// ScoreAnswer applies the keyword heuristics used to monitor answer quality.
func ScoreAnswer(answer string) QualityScore {
	var s QualityScore
	lower := strings.ToLower(answer)

	if core.ContainsAny(lower, "brri", "bari", "kg", "acre", "day", "month", "variety") {
		s.Completeness = 25
	}
	if core.ContainsAny(answer, "•", "1.", "Step") {
		s.Actionability = 25
	}
	if core.ContainsAny(answer, "NASA", "FAO", "BRRI", "BARI", "Research") {
		s.AccuracyIndicators = 25
	}
	if n := utf8.RuneCountInString(answer); n > 200 && n < 1500 && strings.Contains(answer, "**") {
		s.Clarity = 25
	}
	return s
}
