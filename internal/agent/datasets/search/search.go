// Package search wraps the public encyclopedia, instant-answer and preprint
// search APIs behind one interface.
package search

import (
	"context"
	"time"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

// Searcher returns a short text snippet for a query, or "" when nothing
// relevant was found.
type Searcher interface {
	Engine() model.SearchEngine
	Search(ctx context.Context, query string) (string, error)
}

type cached struct {
	inner   Searcher
	store   cache.Store
	metrics *telemetry.Metrics
}

// Cached memoizes non-empty snippets per engine and query.
func Cached(s Searcher, store cache.Store, metrics *telemetry.Metrics) Searcher {
	return &cached{inner: s, store: store, metrics: metrics}
}

func (c *cached) Engine() model.SearchEngine { return c.inner.Engine() }

func (c *cached) Search(ctx context.Context, query string) (string, error) {
	key := cache.SearchKey(c.inner.Engine(), query)
	if s, ok := cache.GetString(ctx, c.store, key, cache.TTLSearch); ok {
		return s, nil
	}
	start := time.Now()
	s, err := c.inner.Search(ctx, query)
	c.metrics.RecordProvider(ctx, "search_"+c.inner.Engine().String(), time.Since(start), err)
	if err != nil {
		return "", err
	}
	if s != "" {
		cache.SetJSON(ctx, c.store, key, s)
	}
	return s, nil
}
