package llm

import (
	"context"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/retry"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// ResilientChatModel retries the wrapped model and turns final failure into
// the apology answer, so the graph never fails because a provider did.
type ResilientChatModel struct {
	inner   einomodel.BaseChatModel
	name    string
	retry   retry.Config
	metrics *telemetry.Metrics
}

func NewResilientChatModel(inner einomodel.BaseChatModel, name string, cfg retry.Config, metrics *telemetry.Metrics) *ResilientChatModel {
	return &ResilientChatModel{inner: inner, name: name, retry: cfg, metrics: metrics}
}

func (r *ResilientChatModel) GetType() string { return "Resilient" }

func (r *ResilientChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	ctx, span := telemetry.StartSpan(ctx, "llm.generate")
	defer span.End()

	var out *schema.Message
	start := time.Now()
	err := retry.DoWithLog(ctx, r.retry, r.name, func() error {
		msg, err := r.inner.Generate(ctx, in, opts...)
		if err != nil {
			return err
		}
		out = msg
		return nil
	}, func(attempt int, err error, next time.Duration) {
		logx.Warn().
			Str("provider", r.name).
			Int("attempt", attempt).
			Dur("next_delay", next).
			Err(err).
			Msg("Model call failed, retrying")
	})
	r.metrics.RecordProvider(ctx, "llm_"+r.name, time.Since(start), err)

	if err != nil || out == nil {
		telemetry.RecordError(span, err)
		logx.Error().Str("provider", r.name).Err(err).Msg("Model unavailable, answering with apology")
		return Apology(), nil
	}
	return tag(out, model.SourceModel), nil
}

func (r *ResilientChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return streamOf(r.Generate(ctx, in, opts...))
}

// Apology is the answer used after the provider gave up.
func Apology() *schema.Message {
	return tag(schema.AssistantMessage(ApologyText, nil), model.SourceApology)
}
