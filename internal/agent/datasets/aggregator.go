package datasets

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets/search"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
	"github.com/chashi-bhai/server/pkg/httpx"
	logx "github.com/chashi-bhai/server/pkg/logger"
	"github.com/chashi-bhai/server/pkg/telemetry"
)

const (
	// searchMinChars drops snippets too short to carry information.
	searchMinChars = 50
	searchMaxChars = 800
	faoCountry     = "BGD"
)

// aggregatorEngines is the order web snippets are appended in.
var aggregatorEngines = []model.SearchEngine{model.EngineWikipedia, model.EngineDuckDuckGo, model.EngineArxiv}

// Request is what the aggregator needs from a turn.
type Request struct {
	Query    string // English query
	Original string // the farmer's message as sent
	Location model.Location
	Analysis model.QuestionAnalysis
}

// Aggregator fetches every dataset, both reference tables and every search
// engine in one concurrent batch. A failing source only drops its own block.
type Aggregator struct {
	providers     []Provider
	references    *References
	searchers     map[model.SearchEngine]search.Searcher
	fetchTimeout  time.Duration
	searchTimeout time.Duration
}

func NewAggregator(providers []Provider, references *References, searchers []search.Searcher, cfg model.DatasetsConfig) *Aggregator {
	byEngine := make(map[model.SearchEngine]search.Searcher, len(searchers))
	for _, s := range searchers {
		byEngine[s.Engine()] = s
	}
	return &Aggregator{
		providers:     providers,
		references:    references,
		searchers:     byEngine,
		fetchTimeout:  cfg.FetchTimeout,
		searchTimeout: cfg.SearchTimeout,
	}
}

// DefaultProviders builds the five dataset providers, cached, in report order.
func DefaultProviders(cfg model.DatasetsConfig, store cache.Store, metrics *telemetry.Metrics) []Provider {
	power := NewPower(cfg)
	return []Provider{
		Cached(power, store, power.DaysBack(), metrics),
		Cached(NewModis(cfg), store, 0, metrics),
		Cached(NewGldas(cfg), store, 0, metrics),
		Cached(NewGrace(cfg), store, 0, metrics),
		Cached(NewLandsat(cfg), store, 0, metrics),
	}
}

// DefaultSearchers builds the three public search engines, cached.
func DefaultSearchers(cfg model.DatasetsConfig, store cache.Store, metrics *telemetry.Metrics) []search.Searcher {
	c := httpx.Client(nil, cfg.SearchTimeout)
	return []search.Searcher{
		search.Cached(search.NewWikipediaWithOptions("", c), store, metrics),
		search.Cached(search.NewDuckDuckGoWithOptions("", c), store, metrics),
		search.Cached(search.NewArxivWithOptions("", c), store, metrics),
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Collect requires resolved coordinates; callers skip it otherwise.
func (a *Aggregator) Collect(ctx context.Context, req Request) model.LiveData {
	ctx, span := telemetry.StartSpan(ctx, "datasets.collect")
	defer span.End()

	lat, lon := req.Location.Coords()
	results := make([]*Result, len(a.providers))
	snippets := make([]string, len(aggregatorEngines))
	topic := ResearchTopic(req.Query, req.Original)
	var fao, local string

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.providers {
		g.Go(func() error {
			cctx, cancel := withTimeout(gctx, a.fetchTimeout)
			defer cancel()
			r, err := p.Fetch(cctx, lat, lon)
			if err != nil {
				logx.Warn().Err(err).Str("dataset", p.Dataset().String()).Msg("dataset fetch failed")
				return nil
			}
			results[i] = r
			return nil
		})
	}
	if a.references != nil {
		g.Go(func() error {
			fao = a.references.FAO(gctx, faoCountry)
			return nil
		})
		g.Go(func() error {
			local = a.references.LocalResearch(gctx, topic)
			return nil
		})
	}
	for i, engine := range aggregatorEngines {
		s, ok := a.searchers[engine]
		if !ok {
			continue
		}
		g.Go(func() error {
			cctx, cancel := withTimeout(gctx, a.searchTimeout)
			defer cancel()
			text, err := s.Search(cctx, req.Query)
			if err != nil {
				logx.Debug().Err(err).Str("engine", engine.String()).Msg("search failed")
				return nil
			}
			snippets[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var live model.LiveData
	var ok []*Result
	for _, r := range results {
		if r != nil && r.Success {
			ok = append(ok, r)
			live.DatasetsUsed = append(live.DatasetsUsed, r.Dataset)
		}
	}
	if insights, found := analyze(ok, req.Analysis); found {
		live.NASAInsights = "\n\n**COMPREHENSIVE NASA SATELLITE DATA for " + req.Location.PromptName() + ":**\n" + insights + "\n\n"
	}
	if fao != "" {
		live.FAO = "\n\n" + fao
	}
	if local != "" {
		live.LocalResearch = "\n\n" + local
	}
	live.Search = renderSnippets(snippets)

	logx.Info().
		Strs("datasets", model.DatasetNames(live.DatasetsUsed)).
		Str("topic", topic).
		Dur("elapsed", time.Since(start)).
		Msg("live data collected")
	return live
}

func renderSnippets(snippets []string) string {
	var b strings.Builder
	for i, s := range snippets {
		if utf8.RuneCountInString(strings.TrimSpace(s)) <= searchMinChars {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\n\n**WEB SEARCH RESULTS:**\n")
		}
		b.WriteString("\n**" + aggregatorEngines[i].String() + ":**\n" + core.Truncate(s, searchMaxChars) + "...\n")
	}
	return b.String()
}
