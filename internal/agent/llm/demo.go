package llm

import (
	"context"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

// DemoChatModel stands in for the provider when no key is configured.
type DemoChatModel struct{}

func (DemoChatModel) GetType() string { return "Demo" }

func (DemoChatModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	msg := schema.AssistantMessage(DemoText(questionFrom(in)), nil)
	return tag(msg, model.SourceDemo), nil
}

func (d DemoChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return streamOf(d.Generate(ctx, in, opts...))
}

// DemoText is the fixed demo-mode answer echoing the farmer's question.
func DemoText(question string) string {
	return "**Chashi Bhai (Demo Mode)**\n\n" +
		"• The intelligent LLM backend isn't configured.\n" +
		"• Set the environment variable **GROQ_API_KEY** to enable live answers.\n\n" +
		"**You asked about:**\n" +
		"• " + question + "\n\n" +
		"**What to do next:**\n" +
		"1. Create a .env file with GROQ_API_KEY=your_key\n" +
		"2. Restart the server\n" +
		"3. Ask again for a live answer"
}

var questionLabel = regexp.MustCompile(`(?i)question:`)

// questionFrom finds the farmer's question in the last user prompt: the text
// after a "Question:" label, or the first 100 characters.
func questionFrom(in []*schema.Message) string {
	var prompt string
	for i := len(in) - 1; i >= 0; i-- {
		if in[i] != nil && in[i].Role == schema.User {
			prompt = in[i].Content
			break
		}
	}

	for _, line := range strings.Split(prompt, "\n") {
		labels := questionLabel.FindAllStringIndex(line, -1)
		if len(labels) == 0 {
			continue
		}
		end := labels[len(labels)-1][1]
		if q := strings.Trim(strings.TrimSpace(line[end:]), `"`); q != "" {
			return q
		}
	}

	if short := core.Truncate(prompt, 100); short != prompt {
		return short + "..."
	}
	return prompt
}
