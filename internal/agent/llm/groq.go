package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	errx "github.com/chashi-bhai/server/internal/core/error"
)

// GroqConfig configures the OpenAI-compatible Groq endpoint.
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// GroqChatModel talks to Groq through the OpenAI chat completions API.
type GroqChatModel struct {
	client      openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewGroqChatModel(cfg GroqConfig) *GroqChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// retries belong to ResilientChatModel
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &GroqChatModel{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *GroqChatModel) GetType() string { return "Groq" }

func (g *GroqChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	o := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &g.temperature,
		MaxTokens:   &g.maxTokens,
		Model:       &g.model,
	}, opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(*o.Model),
		Messages: toOpenAIMessages(in),
	}
	if o.Temperature != nil {
		params.Temperature = openai.Float(float64(*o.Temperature))
	}
	if o.MaxTokens != nil && *o.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*o.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errx.WrapProvider("groq", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errx.WrapProvider("groq", errx.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	msg := schema.AssistantMessage(choice.Message.Content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(choice.FinishReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	return msg, nil
}

func (g *GroqChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return streamOf(g.Generate(ctx, in, opts...))
}

func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(m.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case schema.User:
			out = append(out, openai.UserMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(fmt.Sprintf("[%s] %s", m.Role, m.Content)))
		}
	}
	return out
}
