package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/graph/parsers"
	"github.com/chashi-bhai/server/internal/agent/graph/prompts"
	"github.com/chashi-bhai/server/internal/agent/graph/tools"
	"github.com/chashi-bhai/server/internal/agent/knowledge"
	"github.com/chashi-bhai/server/internal/agent/llm"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

// minAnswerChars is the shortest model answer accepted as real content.
const minAnswerChars = 10

// NewSearchPlannerNode asks every search engine about the query. The plan is
// a single assistant message whose tool calls the tools node fans out.
func NewSearchPlannerNode(engines []model.SearchEngine) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*schema.Message, error) {
		queries := knowledge.SearchQueries(t.Query, t.Analysis)

		var calls []schema.ToolCall
		for _, e := range engines {
			for i, q := range queries {
				id := fmt.Sprintf("call_%s_%d", strings.ToLower(e.String()), i)
				calls = append(calls, tools.SearchCall(id, e, q))
			}
		}
		logx.Debug().Int("tool_count", len(calls)).Strs("queries", queries).Msg("Calling search tools")
		return schema.AssistantMessage("", calls), nil
	})
}

// NewSearchToolsConfig builds the tools node config for the search tools.
func NewSearchToolsConfig(ts []tool.BaseTool) *compose.ToolsNodeConfig {
	return &compose.ToolsNodeConfig{
		Tools: ts,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown tool call; returning empty result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return tools.SanitizeArguments(name, arguments), nil
		},
	}
}

// NewNoSearchNode stands in for the tools node when no search engine is
// configured. The answer is then composed without a DATA block.
func NewNoSearchNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan *schema.Message) ([]*schema.Message, error) {
		logx.Debug().Msg("No search engines configured; composing without search results")
		return nil, nil
	})
}

// NewComposeNode folds the search results into the DATA block and renders
// the answer prompt.
func NewComposeNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, results []*schema.Message) ([]*schema.Message, error) {
		t, err := turnFromState(ctx)
		if err != nil {
			return nil, fmt.Errorf("compose prompt: %w", err)
		}

		byEngine := map[model.SearchEngine][]string{}
		for _, msg := range results {
			if engine, text, ok := tools.ParseResult(msg); ok {
				byEngine[engine] = append(byEngine[engine], strings.TrimSpace(text))
			}
		}
		var snippets []prompts.Snippet
		for _, e := range model.AllEngines {
			if texts := byEngine[e]; len(texts) > 0 {
				snippets = append(snippets, prompts.Snippet{Engine: e, Text: strings.Join(texts, " ")})
			}
		}
		t.SearchBlock = prompts.DataBlock(snippets)

		msgs, err := prompts.RenderAnswer(ctx, prompts.AnswerInput{
			Query:    t.Query,
			Analysis: t.Analysis,
			Location: t.Location.PromptName(),
			Context:  t.HybridContext,
			Data:     t.SearchBlock,
			Season:   prompts.SeasonContext(d.now()),
		})
		if err != nil {
			return nil, err
		}
		t.Prompt = msgs[len(msgs)-1].Content
		logx.Debug().
			Int("snippets", len(snippets)).
			Int("prompt_chars", len(t.Prompt)).
			Msg("Answer prompt ready")
		return msgs, nil
	})
}

// NewChatModelPostHandler computes and logs usage cost for the response
// model, then records the node checkpoint.
func NewChatModelPostHandler(modelName string, now func() time.Time) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	checkpoint := NewCheckpointPostHandler[*schema.Message](NodeChatModel, now)
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			usage := out.ResponseMeta.Usage
			inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     usage.PromptTokens,
				"completion_tokens": usage.CompletionTokens,
				"total_tokens":      usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			state.TotalCostUSD += totalC

			var userID string
			if state.Turn != nil {
				userID = state.Turn.UserID
			}
			logx.Debug().
				Str("user_id", userID).
				Str("node", NodeChatModel).
				Str("model", modelName).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")
		}
		return checkpoint(ctx, out, state)
	}
}

// NewCollectNode turns the model message back into the turn's answer,
// caching real answers and logging their quality score.
func NewCollectNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*model.Turn, error) {
		t, err := turnFromState(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect answer: %w", err)
		}

		src := llm.SourceOf(msg)
		var content string
		if msg != nil {
			content = strings.TrimSpace(msg.Content)
		}
		if src == model.SourceModel && utf8.RuneCountInString(content) <= minAnswerChars {
			logx.Warn().Str("content", content).Msg("Model answer too short, replacing")
			content, src = llm.UnclearText, model.SourceApology
		}
		t.Answer, t.Source = content, src

		if !src.Cacheable() {
			return t, nil
		}
		if d.Cache != nil {
			cache.SetJSON(ctx, d.Cache, cache.ResponseKey(t.Query, t.Live.DatasetsUsed), content)
		}
		score := parsers.ScoreAnswer(content)
		logx.Info().
			Int("quality", score.Total()).
			Int("completeness", score.Completeness).
			Int("actionability", score.Actionability).
			Int("accuracy", score.AccuracyIndicators).
			Int("clarity", score.Clarity).
			Bool("needs_regeneration", score.NeedsRegeneration()).
			Msg("Answer quality")
		return t, nil
	})
}
