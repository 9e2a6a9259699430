package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"
	"golang.org/x/sync/errgroup"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/datasets/forecast"
	"github.com/chashi-bhai/server/internal/agent/graph/parsers"
	"github.com/chashi-bhai/server/internal/agent/graph/prompts"
	"github.com/chashi-bhai/server/internal/agent/graph/replies"
	"github.com/chashi-bhai/server/internal/agent/knowledge"
	"github.com/chashi-bhai/server/internal/agent/location"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// NewTranslateInPreHandler registers the turn in graph state and resets the
// per-run bookkeeping.
func NewTranslateInPreHandler() func(context.Context, *model.Turn, *model.AppState) (*model.Turn, error) {
	return func(_ context.Context, in *model.Turn, s *model.AppState) (*model.Turn, error) {
		s.Turn = in
		s.Checkpoints = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewTranslateInNode detects the farmer's language and produces the English
// working query.
func NewTranslateInNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.Query, t.DetectedLang = d.Language.ToEnglish(ctx, t.Message)
		logx.Debug().
			Str("user_id", t.UserID).
			Str("lang", t.DetectedLang).
			Str("query", t.Query).
			Msg("Query translated")
		return t, nil
	})
}

// NewLocateNode loads the farmer's profile and resolves where they are.
func NewLocateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		ctx, span := telemetry.StartSpan(ctx, "pipeline.locate")
		defer span.End()

		uc, err := d.Users.Get(ctx, t.UserID)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", t.UserID).Msg("Error loading user context")
			uc = &model.UserContext{UserID: t.UserID}
		}
		t.User = uc

		t.Location = d.Locations.Resolve(ctx, location.Request{
			ClientIP: t.ClientIP,
			Manual:   strings.TrimSpace(t.ManualLocation),
			Query:    t.Query,
			Stored:   uc.Location,
		})
		logx.Debug().
			Str("location", t.Location.String()).
			Str("source", t.Location.Source).
			Msg("Location resolved")
		return t, nil
	})
}

// Intercept is a canned reply that short-circuits the pipeline.
type Intercept int

const (
	InterceptNone Intercept = iota
	InterceptCapability
	InterceptForecast
	InterceptGreeting
	InterceptTest
)

// InterceptFor checks the canned replies in priority order.
func (d *Deps) InterceptFor(t *model.Turn) Intercept {
	switch {
	case replies.IsCapabilityQuestion(t.Query):
		return InterceptCapability
	case !d.LiveModel && d.Forecasts != nil && t.HasCoordinates() && forecast.IsForecastQuery(t.Query):
		return InterceptForecast
	case replies.IsGreeting(t.Query):
		return InterceptGreeting
	case replies.IsTest(t.Query):
		return InterceptTest
	}
	return InterceptNone
}

// NewInterceptCondition routes canned questions away from the full pipeline.
func NewInterceptCondition(d *Deps) func(context.Context, *model.Turn) (string, error) {
	return func(_ context.Context, t *model.Turn) (string, error) {
		if d.InterceptFor(t) != InterceptNone {
			return NodeCanned, nil
		}
		return NodeClassify, nil
	}
}

// NewCannedNode writes the canned reply selected by InterceptFor.
func NewCannedNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		kind := d.InterceptFor(t)
		switch kind {
		case InterceptCapability:
			t.Answer = replies.CapabilityText()
		case InterceptForecast:
			t.Answer, t.Live.DatasetsUsed = d.forecastReply(ctx, t)
		case InterceptGreeting:
			t.Answer = replies.GreetingText()
		default:
			t.Answer = replies.TestText()
		}
		t.Source = model.SourceCanned
		t.Intercepted = true
		logx.Debug().Int("intercept", int(kind)).Msg("Answered with canned reply")
		return t, nil
	})
}

func (d *Deps) forecastReply(ctx context.Context, t *model.Turn) (string, []model.Dataset) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.forecast_reply")
	defer span.End()

	lat, lon := t.Location.Coords()
	var (
		summary string
		recent  *datasets.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := d.Forecasts.Forecast(gctx, lat, lon, forecastDays)
		if err != nil {
			logx.Warn().Err(err).Msg("Forecast unavailable")
			return nil
		}
		summary = fc.Summary()
		return nil
	})
	if d.Climate != nil {
		g.Go(func() error {
			r, err := d.Climate.FetchWindow(gctx, lat, lon, recentClimateDays)
			if err != nil {
				logx.Warn().Err(err).Msg("Recent climate unavailable")
				return nil
			}
			recent = r
			return nil
		})
	}
	_ = g.Wait()
	return replies.ForecastText(summary, recent, recentClimateDays)
}

// NewClassifyNode derives the question analysis.
func NewClassifyNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.Analysis = knowledge.Classify(t.Query)
		logx.Debug().
			Str("type", t.Analysis.PrimaryType.String()).
			Str("complexity", t.Analysis.Complexity.String()).
			Strs("relevant_datasets", model.DatasetNames(knowledge.RelevantDatasets(t.Query))).
			Msg("Question classified")
		return t, nil
	})
}

// NewAggregateNode fetches live data. Turns without coordinates skip it.
func NewAggregateNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if !t.HasCoordinates() || d.Live == nil {
			logx.Debug().Str("location", t.Location.Label()).Msg("No coordinates, skipping live data")
			return t, nil
		}
		t.Live = d.Live.Collect(ctx, datasets.Request{
			Query:    t.Query,
			Original: t.Message,
			Location: t.Location,
			Analysis: t.Analysis,
		})
		return t, nil
	})
}

// NewRetrieveNode renders the knowledge, few-shot and personalization layers.
func NewRetrieveNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		kb := d.Knowledge
		if kb == nil {
			return t, nil
		}
		var interests []string
		if t.User != nil {
			interests = t.User.CropInterests
		}
		knowledgeK, examplesK := d.retrievalTopK()
		domain := knowledge.InferDomain(t.Query, t.Analysis)

		specialized := kb.Reference().SpecializedContext(t.Analysis, t.Query)
		if country := knowledge.CountryContext(t.Location.PromptName()); country != "" {
			if specialized != "" {
				specialized += "\n"
			}
			specialized += country
		}

		t.Layers = model.ContextLayers{
			FewShot:     kb.Examples().Relevant(t.Query, domain, examplesK),
			Knowledge:   kb.Retrieve(t.Query, interests, knowledgeK),
			User:        knowledge.PersonalizedContext(t.User),
			Specialized: specialized,
		}
		logx.Debug().
			Str("domain", domain).
			Bool("few_shot", t.Layers.FewShot != "").
			Bool("knowledge", t.Layers.Knowledge != "").
			Bool("user", t.Layers.User != "").
			Bool("specialized", t.Layers.Specialized != "").
			Msg("Context layers retrieved")
		return t, nil
	})
}

func (d *Deps) retrievalTopK() (int, int) {
	k, e := d.Retrieval.KnowledgeTopK, d.Retrieval.ExamplesTopK
	if k <= 0 {
		k = 2
	}
	if e <= 0 {
		e = 1
	}
	return k, e
}

// NewAssembleNode stacks every layer into the hybrid context.
func NewAssembleNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.HybridContext = prompts.AssembleContext(t.Layers, t.Live)
		logx.Debug().Int("context_chars", len(t.HybridContext)).Msg("Hybrid context assembled")
		return t, nil
	})
}

// NewRecallNode answers from the response cache, then the express rules,
// then the topic shortcuts. A turn it cannot answer leaves with no Answer.
func NewRecallNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if d.Cache != nil {
			key := cache.ResponseKey(t.Query, t.Live.DatasetsUsed)
			if hit, ok := cache.GetString(ctx, d.Cache, key, cache.TTLResponse); ok {
				t.Answer, t.Source = hit, model.SourceCache
				logx.Debug().Str("key", key).Msg("Response cache hit")
				return t, nil
			}
		}
		if reply, ok := replies.Express(t.Query, t.Location.PromptName()); ok {
			t.Answer, t.Source = reply, model.SourceExpress
			return t, nil
		}
		if reply, ok := replies.Shortcut(t.Query, t.Location); ok {
			t.Answer, t.Source = reply, model.SourceShortcut
			return t, nil
		}
		return t, nil
	})
}

// NewRecallCondition sends unanswered turns to the model path.
func NewRecallCondition() func(context.Context, *model.Turn) (string, error) {
	return func(_ context.Context, t *model.Turn) (string, error) {
		if t.Source != model.SourceNone {
			logx.Debug().Str("source", t.Source.String()).Msg("Answered without the model")
			return NodeAttribute, nil
		}
		return NodeSearchPlanner, nil
	}
}

// NewAttributeNode appends the data-source line.
func NewAttributeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.Answer = replies.Attribute(t.Answer, t.Live)
		return t, nil
	})
}

// NewTranslateOutNode renders the answer in the farmer's language.
func NewTranslateOutNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.Reply = d.Language.FromEnglish(ctx, t.Answer, t.DetectedLang)
		return t, nil
	})
}

// NewFormatNode converts the reply to the chat UI's HTML.
func NewFormatNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		t.Reply = parsers.Format(t.Reply)
		return t, nil
	})
}

// NewRememberNode records the query in the farmer's context. Canned replies
// are not remembered.
func NewRememberNode(d *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, t *model.Turn) (*model.Turn, error) {
		if t.Intercepted {
			return t, nil
		}
		if _, err := d.Users.Record(ctx, t.UserID, t.Query, t.Location.DisplayName); err != nil {
			logx.Error().Err(err).Str("user_id", t.UserID).Msg("Error saving user context")
		}
		return t, nil
	})
}
