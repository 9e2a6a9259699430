// Package llm builds the chat model that answers farmer questions. Every
// backend satisfies eino's BaseChatModel so the graph can mount it as a chat
// model node regardless of which provider is configured.
package llm

import (
	"context"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/retry"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const (
	// ApologyText replaces the answer once every attempt has failed.
	ApologyText = "I'm sorry, I'm experiencing high demand right now. Please try again in a moment."
	// UnclearText replaces an empty or near-empty model answer.
	UnclearText = "I'm sorry, I'm having trouble processing your request right now. Please try rephrasing your question."

	// ExtraSource is the schema.Message Extra key naming which lane wrote the text.
	ExtraSource = "answer_source"
)

// Mode is the backend behind the response model.
type Mode int

const (
	ModeDemo Mode = iota
	ModeGroq
	ModeGemini
)

func (m Mode) String() string {
	switch m {
	case ModeGroq:
		return "groq"
	case ModeGemini:
		return "gemini"
	default:
		return "demo"
	}
}

// ChatModels holds the response model and what it is.
type ChatModels struct {
	Response  einomodel.BaseChatModel
	ModelName string
	Mode      Mode
}

// Live reports whether a real provider is configured.
func (c *ChatModels) Live() bool {
	return c != nil && c.Mode != ModeDemo
}

// NewChatModels picks the provider from config. A missing key is not an
// error: the server starts in demo mode and says so in every answer.
func NewChatModels(ctx context.Context, cfg model.ResponseModelConfig, metrics *telemetry.Metrics) (*ChatModels, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch {
	case provider == "gemini" && cfg.GeminiAPIKey != "":
		cm, err := NewGeminiChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logx.Info().Str("provider", "gemini").Str("model", cfg.GeminiModel).Msg("Response model ready")
		return &ChatModels{
			Response:  NewResilientChatModel(cm, "gemini", retry.DefaultConfig(), metrics),
			ModelName: cfg.GeminiModel,
			Mode:      ModeGemini,
		}, nil

	case provider != "gemini" && cfg.GroqAPIKey != "":
		cm := NewGroqChatModel(GroqConfig{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		logx.Info().Str("provider", "groq").Str("model", cfg.Model).Msg("Response model ready")
		return &ChatModels{
			Response:  NewResilientChatModel(cm, "groq", retry.DefaultConfig(), metrics),
			ModelName: cfg.Model,
			Mode:      ModeGroq,
		}, nil
	}

	logx.Warn().Str("provider", provider).Msg("No model credentials configured, answering in demo mode")
	return &ChatModels{Response: DemoChatModel{}, ModelName: "demo", Mode: ModeDemo}, nil
}

// SourceOf reads the lane marker a model in this package left on msg.
func SourceOf(msg *schema.Message) model.AnswerSource {
	if msg == nil {
		return model.SourceNone
	}
	v, _ := msg.Extra[ExtraSource].(string)
	switch v {
	case model.SourceDemo.String():
		return model.SourceDemo
	case model.SourceApology.String():
		return model.SourceApology
	default:
		return model.SourceModel
	}
}

func tag(msg *schema.Message, src model.AnswerSource) *schema.Message {
	if msg.Extra == nil {
		msg.Extra = map[string]any{}
	}
	if _, ok := msg.Extra[ExtraSource]; !ok {
		msg.Extra[ExtraSource] = src.String()
	}
	return msg
}

// streamOf adapts a single generated message to the streaming contract.
func streamOf(msg *schema.Message, err error) (*schema.StreamReader[*schema.Message], error) {
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
