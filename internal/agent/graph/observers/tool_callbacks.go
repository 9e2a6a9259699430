package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/chashi-bhai/server/internal/core"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

// newToolHandler logs each search tool call and the size of its result.
func newToolHandler() *callbackHelper.ToolCallbackHandler {
	return &callbackHelper.ToolCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *tool.CallbackInput) context.Context {
			var args string
			if input != nil {
				args = input.ArgumentsInJSON
			}
			logx.Debug().Str("tool", info.Name).Str("arguments", args).Msg("Tool start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *tool.CallbackOutput) context.Context {
			var resp string
			if output != nil {
				resp = output.Response
			}
			logx.Debug().
				Str("tool", info.Name).
				Int("response_chars", len(resp)).
				Str("response", core.Truncate(resp, previewChars)).
				Msg("Tool end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Str("tool", info.Name).Err(err).Msg("Tool execution failed")
			return ctx
		},
	}
}
