// Package datasets fetches and interprets the NASA climate, vegetation and
// hydrology products a turn is grounded on.
package datasets

import (
	"context"
	"fmt"
	"time"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/model"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const (
	StatusLive          = "live"
	StatusAuthenticated = "authenticated"
	StatusSimulated     = "simulated"
)

// Result is one dataset's answer for a point.
type Result struct {
	Dataset   model.Dataset        `json:"dataset"`
	Success   bool                 `json:"success"`
	Location  string               `json:"location"`
	APIStatus string               `json:"api_status"`
	DateRange string               `json:"date_range,omitempty"`
	Values    map[string]float64   `json:"values,omitempty"`
	Labels    map[string]string    `json:"labels,omitempty"`
	Series    map[string][]float64 `json:"series,omitempty"`
}

func pointLabel(lat, lon float64) string {
	return fmt.Sprintf("Lat: %.2f, Lon: %.2f", lat, lon)
}

// Provider fetches one dataset.
type Provider interface {
	Dataset() model.Dataset
	Fetch(ctx context.Context, lat, lon float64) (*Result, error)
}

func ttlFor(ds model.Dataset) time.Duration {
	switch ds {
	case model.DatasetPOWER:
		return cache.TTLPower
	case model.DatasetMODIS:
		return cache.TTLModis
	case model.DatasetLANDSAT:
		return cache.TTLLandsat
	case model.DatasetGLDAS:
		return cache.TTLGldas
	case model.DatasetGRACE:
		return cache.TTLGrace
	}
	return time.Hour
}

// cachedProvider memoizes successful fetches per point and day.
type cachedProvider struct {
	inner    Provider
	store    cache.Store
	daysBack int
	now      func() time.Time
	metrics  *telemetry.Metrics
}

// Cached wraps p so successful results are reused for the dataset's TTL.
// daysBack only shapes the key; zero means the default window.
func Cached(p Provider, store cache.Store, daysBack int, metrics *telemetry.Metrics) Provider {
	return &cachedProvider{inner: p, store: store, daysBack: daysBack, now: time.Now, metrics: metrics}
}

func (c *cachedProvider) Dataset() model.Dataset { return c.inner.Dataset() }

func (c *cachedProvider) Fetch(ctx context.Context, lat, lon float64) (*Result, error) {
	ds := c.inner.Dataset()
	key := cache.DatasetKey(ds, lat, lon, c.daysBack, c.now())
	if hit, ok := cache.GetJSON[Result](ctx, c.store, key, ttlFor(ds)); ok {
		logx.Debug().Str("dataset", ds.String()).Msg("dataset cache hit")
		return &hit, nil
	}

	start := time.Now()
	res, err := c.inner.Fetch(ctx, lat, lon)
	c.metrics.RecordProvider(ctx, "nasa_"+ds.String(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if res != nil && res.Success {
		cache.SetJSON(ctx, c.store, key, res)
	}
	return res, nil
}
