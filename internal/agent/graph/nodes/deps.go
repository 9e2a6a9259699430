package nodes

import (
	"context"
	"time"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/datasets/forecast"
	"github.com/chashi-bhai/server/internal/agent/knowledge"
	"github.com/chashi-bhai/server/internal/agent/location"
	"github.com/chashi-bhai/server/internal/agent/model"
)

// Translator moves text in and out of the working language.
type Translator interface {
	ToEnglish(ctx context.Context, text string) (string, string)
	FromEnglish(ctx context.Context, text, targetLang string) string
}

// LocationResolver picks the turn's location.
type LocationResolver interface {
	Resolve(ctx context.Context, req location.Request) model.Location
}

// UserContexts is the per-farmer memory.
type UserContexts interface {
	Get(ctx context.Context, userID string) (*model.UserContext, error)
	Record(ctx context.Context, userID, query, location string) (*model.UserContext, error)
}

// Collector gathers live data for a located turn.
type Collector interface {
	Collect(ctx context.Context, req datasets.Request) model.LiveData
}

// Forecaster returns an upcoming-weather forecast.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, days int) (*forecast.Forecast, error)
}

// ClimateWindow fetches a short POWER window.
type ClimateWindow interface {
	FetchWindow(ctx context.Context, lat, lon float64, daysBack int) (*datasets.Result, error)
}

// Deps are the collaborators every node closes over.
type Deps struct {
	Language  Translator
	Locations LocationResolver
	Users     UserContexts
	Knowledge *knowledge.Base
	Live      Collector
	Forecasts Forecaster
	Climate   ClimateWindow
	Cache     cache.Store
	Retrieval model.RetrievalConfig

	// LiveModel is false in demo mode; it enables the forecast reply.
	LiveModel bool
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
