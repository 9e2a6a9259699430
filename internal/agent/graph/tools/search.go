// Package tools exposes the search engines as eino tools so the model path
// can fan them out through a ToolsNode.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/datasets/search"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

// maxQueryLen bounds the query a tool will forward to an engine.
const maxQueryLen = 300

type SearchInput struct {
	Query string `json:"query"`
}

type SearchOutput struct {
	Engine string `json:"engine"`
	Text   string `json:"text"`
}

var descriptions = map[model.SearchEngine]string{
	model.EngineWikipedia:  "Look up encyclopedic background on a crop, disease, practice or place. Returns a short extract.",
	model.EngineArxiv:      "Search recent scientific papers for agricultural research findings. Returns titles and abstracts.",
	model.EngineDuckDuckGo: "Search the web for current practical information such as advisories or market notes. Returns an instant answer.",
}

// NewSearchTool wraps one engine. Engine failures are logged and reported
// as an empty text so one slow engine never fails the turn.
func NewSearchTool(s search.Searcher, timeout time.Duration) tool.InvokableTool {
	engine := s.Engine()
	return utils.NewTool(
		&schema.ToolInfo{
			Name: engine.ToolName(),
			Desc: descriptions[engine],
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "English search keywords, for example: boro rice blast control",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *SearchInput) (*SearchOutput, error) {
			out := &SearchOutput{Engine: engine.String()}
			if in == nil || strings.TrimSpace(in.Query) == "" {
				return nil, fmt.Errorf("query is required")
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			text, err := s.Search(ctx, in.Query)
			if err != nil {
				logx.Debug().Err(err).Str("engine", engine.String()).Msg("search tool failed")
				return out, nil
			}
			out.Text = text
			return out, nil
		},
	)
}

// GetSearchTools builds one tool per configured engine in AllEngines order.
func GetSearchTools(searchers []search.Searcher, timeout time.Duration) []tool.BaseTool {
	byEngine := make(map[model.SearchEngine]search.Searcher, len(searchers))
	for _, s := range searchers {
		byEngine[s.Engine()] = s
	}
	var out []tool.BaseTool
	for _, e := range model.AllEngines {
		if s, ok := byEngine[e]; ok {
			out = append(out, NewSearchTool(s, timeout))
		}
	}
	return out
}

// GetToolInfos collects the schema of every tool.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// EngineForTool maps a tool name back to its engine.
func EngineForTool(name string) (model.SearchEngine, bool) {
	for _, e := range model.AllEngines {
		if e.ToolName() == name {
			return e, true
		}
	}
	return 0, false
}

// SanitizeArguments trims the query and coerces non-string values. It never
// fails; arguments that are not JSON are passed through.
func SanitizeArguments(name, arguments string) string {
	if _, ok := EngineForTool(name); !ok {
		return arguments
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}
	if v, ok := m["query"]; ok {
		q, isString := v.(string)
		if !isString {
			q = fmt.Sprint(v)
		}
		q = strings.TrimSpace(q)
		if r := []rune(q); len(r) > maxQueryLen {
			q = string(r[:maxQueryLen])
		}
		m["query"] = q
	}
	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

// SearchCall builds the tool call that asks engine for query.
func SearchCall(id string, engine model.SearchEngine, query string) schema.ToolCall {
	args, _ := json.Marshal(SearchInput{Query: query})
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      engine.ToolName(),
			Arguments: string(args),
		},
	}
}

// ParseResult reads a search tool message. ok is false for messages that
// are not search results or carry no text.
func ParseResult(msg *schema.Message) (engine model.SearchEngine, text string, ok bool) {
	if msg == nil || !gjson.Valid(msg.Content) {
		return 0, "", false
	}
	name := gjson.Get(msg.Content, "engine").String()
	for _, e := range model.AllEngines {
		if e.String() == name {
			engine = e
			break
		}
	}
	text = gjson.Get(msg.Content, "text").String()
	return engine, text, engine != 0 && strings.TrimSpace(text) != ""
}
