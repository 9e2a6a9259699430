package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/model"
)

// AppName is how the assistant introduces itself.
const AppName = "Chashi Bhai"

// ReasoningSuffix closes every answer prompt.
const ReasoningSuffix = "\n\nProvide accurate, practical, evidence-based advice.\n"

// DefaultLocation is used in prompts when nothing was resolved.
const DefaultLocation = "your region"

//go:embed template/system_prompt.txt
var systemPromptTemplate string

//go:embed template/answer_compact.txt
var compactAnswerPrompt string

//go:embed template/answer_expanded.txt
var expandedAnswerPrompt string

var systemPrompt = strings.TrimSpace(strings.NewReplacer(
	"{app}", AppName,
	"{region}", "Bangladesh and South Asia",
).Replace(systemPromptTemplate))

// AnswerInput is everything the answer prompt is rendered from.
type AnswerInput struct {
	Query    string
	Analysis model.QuestionAnalysis
	Location string
	Context  string
	Data     string
	Season   Season
}

// RenderAnswer renders the system and user messages for the response model
// via the Eino prompt component, so prompt callbacks fire. ADVANCED questions
// get the expanded template, everything else the compact one.
func RenderAnswer(ctx context.Context, in AnswerInput) ([]*schema.Message, error) {
	body := compactAnswerPrompt
	if in.Analysis.Complexity == model.ComplexityAdvanced {
		body = expandedAnswerPrompt
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = DefaultLocation
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(body),
	)
	vars := map[string]any{
		"Query":        in.Query,
		"QuestionType": in.Analysis.PrimaryType.String(),
		"Location":     location,
		"Context":      in.Context,
		"Data":         in.Data,
		"Season":       in.Season,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("answer prompt render: %w", err)
	}
	if len(msgs) != 2 || msgs[1] == nil {
		return nil, fmt.Errorf("answer prompt render: unexpected result")
	}
	msgs[1].Content = strings.TrimRight(msgs[1].Content, "\n") + ReasoningSuffix
	return msgs, nil
}
