package datasets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets/search"
	"github.com/chashi-bhai/server/internal/agent/model"
)

func newStore(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.NewMemoryStore(100)
	require.NoError(t, err)
	return s
}

const powerBody = `{"properties":{"parameter":{
	"T2M":{"20250101":20.0,"20250102":22.0,"20250103":-999.0,"20250104":24.0},
	"PRECTOTCORR":{"20250101":0.0,"20250102":5.5,"20250103":4.5,"20250104":0.05},
	"RH2M":{"20250101":90,"20250102":88,"20250103":86,"20250104":92}
}}}`

func TestPowerFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "SB", r.URL.Query().Get("community"))
		assert.Contains(t, r.URL.Query().Get("parameters"), "ALLSKY_SFC_SW_DWN")
		w.Write([]byte(powerBody))
	}))
	defer srv.Close()

	p := NewPowerWithOptions(srv.URL, "key", "token", 30, srv.Client())
	res, err := p.Fetch(context.Background(), 23.81, 90.41)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, StatusLive, res.APIStatus)
	assert.Equal(t, []float64{20, 22, 24}, res.Series["T2M"])
	assert.Len(t, res.Series["PRECTOTCORR"], 4)
	assert.Equal(t, "Lat: 23.81, Lon: 90.41", res.Location)
}

func TestPowerRejectsMissingParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"properties":{}}`))
	}))
	defer srv.Close()

	_, err := NewPowerWithOptions(srv.URL, "", "", 0, srv.Client()).Fetch(context.Background(), 1, 2)
	assert.Error(t, err)
}

func TestRecentClimate(t *testing.T) {
	r := &Result{Success: true, Series: map[string][]float64{"T2M": {20, 22}, "PRECTOTCORR": {1.5, 2}}}
	assert.Equal(t, "• Avg Temp (7d): 21.0°C\n• Total Rain (7d): 3.5mm", RecentClimate(r, 7))
	assert.Empty(t, RecentClimate(nil, 7))
}

type countingProvider struct {
	ds    model.Dataset
	ok    bool
	err   error
	calls atomic.Int32
}

func (c *countingProvider) Dataset() model.Dataset { return c.ds }

func (c *countingProvider) Fetch(_ context.Context, lat, lon float64) (*Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &Result{Dataset: c.ds, Success: c.ok, Location: pointLabel(lat, lon), Values: map[string]float64{"ndvi": 0.75}}, nil
}

func TestCachedOnlyStoresSuccess(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	good := &countingProvider{ds: model.DatasetMODIS, ok: true}
	c := Cached(good, store, 0, nil)
	_, err := c.Fetch(ctx, 23.8, 90.4)
	require.NoError(t, err)
	res, err := c.Fetch(ctx, 23.8, 90.4)
	require.NoError(t, err)
	assert.EqualValues(t, 1, good.calls.Load())
	assert.Equal(t, 0.75, res.Values["ndvi"])

	bad := &countingProvider{ds: model.DatasetGRACE, ok: false}
	c = Cached(bad, store, 0, nil)
	c.Fetch(ctx, 23.8, 90.4)
	c.Fetch(ctx, 23.8, 90.4)
	assert.EqualValues(t, 2, bad.calls.Load())
}

func TestSimulatedDatasetsAreDeterministic(t *testing.T) {
	ctx := context.Background()
	cfg := model.DatasetsConfig{}

	for _, p := range []Provider{NewModis(cfg), NewLandsat(cfg), NewGldas(cfg), NewGrace(cfg)} {
		a, err := p.Fetch(ctx, 23.8103, 90.4125)
		require.NoError(t, err)
		b, err := p.Fetch(ctx, 23.8103, 90.4125)
		require.NoError(t, err)
		assert.Equal(t, a, b, p.Dataset().String())
		assert.Equal(t, StatusSimulated, a.APIStatus)
	}

	modis, _ := NewModis(cfg).Fetch(ctx, 23.8103, 90.4125)
	assert.GreaterOrEqual(t, modis.Values["ndvi"], 0.68)
	assert.Less(t, modis.Values["ndvi"], 0.93)

	gldas, _ := NewGldas(cfg).Fetch(ctx, 10, 10)
	assert.Equal(t, 0.32, gldas.Values["soil_moisture"])

	grace, _ := NewGrace(cfg).Fetch(ctx, 10, 10)
	assert.Equal(t, "moderate", grace.Labels["drought_indicator"])
}

func TestAuthenticatedVariants(t *testing.T) {
	ctx := context.Background()
	cfg := model.DatasetsConfig{EarthdataToken: "t"}

	gldas, _ := NewGldas(cfg).Fetch(ctx, 23.8, 90.4)
	assert.Equal(t, StatusAuthenticated, gldas.APIStatus)
	assert.GreaterOrEqual(t, gldas.Values["soil_moisture"], 0.30)
	assert.Less(t, gldas.Values["soil_moisture"], 0.55)

	grace, _ := NewGrace(cfg).Fetch(ctx, 23.8, 90.4)
	assert.Equal(t, StatusAuthenticated, grace.APIStatus)
	assert.Contains(t, []string{"declining", "stable", "increasing"}, grace.Labels["water_trend"])
}

func TestModisProbe(t *testing.T) {
	var entries atomic.Bool
	entries.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, modisCollection, r.URL.Query().Get("collection_concept_id"))
		if entries.Load() {
			w.Write([]byte(`{"feed":{"entry":[{"id":"G1"}]}}`))
			return
		}
		w.Write([]byte(`{"feed":{"entry":[]}}`))
	}))
	defer srv.Close()

	m := NewModisWithOptions("tok", srv.URL, srv.Client())
	res, err := m.Fetch(context.Background(), 23.8, 90.4)
	require.NoError(t, err)
	assert.Equal(t, StatusAuthenticated, res.APIStatus)

	entries.Store(false)
	res, err = m.Fetch(context.Background(), 23.8, 90.4)
	require.NoError(t, err)
	assert.Equal(t, StatusSimulated, res.APIStatus)
}

func TestLandsatProbeFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	res, err := NewLandsatWithOptions("key", srv.URL, srv.Client()).Fetch(context.Background(), 23.8, 90.4)
	require.NoError(t, err)
	assert.Equal(t, StatusSimulated, res.APIStatus)
	assert.Equal(t, "detected", res.Labels["field_boundaries"])
}

func TestAnalyze(t *testing.T) {
	power := &Result{Dataset: model.DatasetPOWER, Success: true, Series: map[string][]float64{
		"T2M":         {20, 22, 24},
		"PRECTOTCORR": {0, 5, 4},
		"RH2M":        {90, 88, 92},
	}}
	gldas := &Result{Dataset: model.DatasetGLDAS, Success: true, Values: map[string]float64{
		"soil_moisture": 0.2, "root_zone_moisture": 0.1, "evapotranspiration": 6.5, "runoff": 3,
	}}
	failed := &Result{Dataset: model.DatasetMODIS, Success: false}

	out := Analyze([]*Result{power, gldas, failed}, model.QuestionAnalysis{})
	assert.True(t, strings.HasPrefix(out, "**NASA SATELLITE DATA ANALYSIS:**\n**Climate Analysis (POWER)**: Avg 22.0°C (Range: 20.0-24.0°C)"))
	assert.Contains(t, out, "**Precipitation Analysis**: 9.0mm total, 3.0mm/day average")
	assert.Contains(t, out, "• **Dry Days**: 1 out of 3 days")
	assert.Contains(t, out, "**Drought Conditions**: Severe water deficit detected")
	assert.Contains(t, out, "• **Humidity**: 90% average")
	assert.Contains(t, out, "• High humidity increases disease risk - enhance air circulation")
	assert.Contains(t, out, "**Drought Stress**: Below optimal soil moisture levels")
	assert.Contains(t, out, "• Root zone moisture deficit - deep irrigation recommended")
	assert.Contains(t, out, "• **High Runoff**: Water loss and potential erosion risk")
	assert.Contains(t, out, "\n**⚠ AGRICULTURAL ALERTS:**")
	assert.Contains(t, out, "\n**🎯 ACTIONABLE RECOMMENDATIONS:**")
	assert.True(t, strings.HasSuffix(out, "Analysis combines 2 NASA datasets for comprehensive assessment"))
	assert.NotContains(t, out, "MODIS")

	assert.Equal(t, "Unable to analyze NASA data for agricultural insights.", Analyze(nil, model.QuestionAnalysis{}))
}

func TestAnalyzeLabels(t *testing.T) {
	landsat := &Result{Dataset: model.DatasetLANDSAT, Success: true,
		Values: map[string]float64{"crop_health_index": 0.95, "crop_type_confidence": 0.9},
		Labels: map[string]string{"water_stress": "moderate", "irrigation_status": "good"}}
	grace := &Result{Dataset: model.DatasetGRACE, Success: true,
		Values: map[string]float64{"groundwater_storage": -3.5},
		Labels: map[string]string{"water_trend": "declining", "drought_indicator": "severe", "seasonal_variation": "high"}}

	out := Analyze([]*Result{landsat, grace}, model.QuestionAnalysis{})
	assert.Contains(t, out, "• **Exceptional Crop Health**: Peak field performance achieved")
	assert.Contains(t, out, "• Increase irrigation frequency by 25-30%")
	assert.Contains(t, out, "• Review irrigation system performance and coverage patterns")
	assert.Contains(t, out, "**Critical Groundwater Depletion**: Severe water table decline")
	assert.Contains(t, out, "**Severe Drought**: Multi-faceted water stress")
	assert.Contains(t, out, "• Plan irrigation storage for dry season water security")
}

func TestResearchTopicAndReferences(t *testing.T) {
	assert.Equal(t, "rice", ResearchTopic("rice yellow leaves", ""))
	assert.Equal(t, "rice", ResearchTopic("leaves turning yellow", "আমার ধান"))
	assert.Equal(t, "vegetables", ResearchTopic("potato blight", ""))
	assert.Equal(t, "vegetables", ResearchTopic("what to grow", "সবজি চাষ"))
	assert.Equal(t, "general", ResearchTopic("soil ph", ""))

	refs := NewReferences(newStore(t))
	ctx := context.Background()

	fao := refs.FAO(ctx, "BGD")
	assert.True(t, strings.HasPrefix(fao, "**🌍 FAO Food Safety & Sustainability Guidelines**\n\n**🛡️ Food Safety Standards:**\n• Pesticide Residue Limits: Follow Codex Alimentarius MRLs"))
	assert.Contains(t, fao, "\n\n**🥗 Nutrition & Soil Health:**\n")
	assert.True(t, strings.HasSuffix(fao, "• Water Management: AWD (Alternate Wetting and Drying) for rice"))

	rice := refs.LocalResearch(ctx, "rice")
	assert.Contains(t, rice, "**🌾 Bangladesh Rice Research Institute:**")
	assert.NotContains(t, rice, "BARI Alu")
	assert.Contains(t, rice, "**🏛️ Department of Agricultural Extension Services:**")

	general := refs.LocalResearch(ctx, "general")
	assert.NotContains(t, general, "BRRI dhan28")
	assert.Contains(t, general, "Free soil testing at district BADC labs")
}

type fakeSearcher struct {
	engine model.SearchEngine
	text   string
	err    error
}

func (f fakeSearcher) Engine() model.SearchEngine { return f.engine }

func (f fakeSearcher) Search(context.Context, string) (string, error) { return f.text, f.err }

func TestAggregatorCollect(t *testing.T) {
	long := strings.Repeat("Rice is a staple crop grown widely in Bangladesh. ", 3)
	providers := []Provider{
		&countingProvider{ds: model.DatasetPOWER, err: errors.New("timeout")},
		&countingProvider{ds: model.DatasetMODIS, ok: true},
		&countingProvider{ds: model.DatasetGLDAS, ok: true},
		&countingProvider{ds: model.DatasetGRACE, ok: false},
		&countingProvider{ds: model.DatasetLANDSAT, ok: true},
	}
	searchers := []search.Searcher{
		fakeSearcher{engine: model.EngineWikipedia, text: long},
		fakeSearcher{engine: model.EngineDuckDuckGo, text: "too short"},
		fakeSearcher{engine: model.EngineArxiv, err: errors.New("down")},
	}
	agg := NewAggregator(providers, NewReferences(newStore(t)), searchers, model.DatasetsConfig{FetchTimeout: time.Second})

	live := agg.Collect(context.Background(), Request{
		Query:    "rice leaves yellow",
		Location: model.NewLocation(23.8, 90.4, "Dhaka, Bangladesh", "ip"),
	})

	assert.Equal(t, []model.Dataset{model.DatasetMODIS, model.DatasetGLDAS, model.DatasetLANDSAT}, live.DatasetsUsed)
	assert.True(t, strings.HasPrefix(live.NASAInsights, "\n\n**COMPREHENSIVE NASA SATELLITE DATA for Dhaka, Bangladesh:**\n**NASA SATELLITE DATA ANALYSIS:**"))
	assert.True(t, strings.HasSuffix(live.NASAInsights, "\n\n"))
	assert.True(t, strings.HasPrefix(live.FAO, "\n\n**🌍 FAO"))
	assert.Contains(t, live.LocalResearch, "Bangladesh Rice Research Institute")
	assert.Equal(t, "\n\n**WEB SEARCH RESULTS:**\n\n**Wikipedia:**\n"+long+"...\n", live.Search)
}

func TestAggregatorSkipsEmptyAnalysis(t *testing.T) {
	providers := []Provider{&countingProvider{ds: model.DatasetPOWER, ok: true}}
	agg := NewAggregator(providers, NewReferences(newStore(t)), nil, model.DatasetsConfig{FetchTimeout: time.Second})

	live := agg.Collect(context.Background(), Request{
		Query:    "rice leaves yellow",
		Location: model.NewLocation(23.8, 90.4, "Dhaka, Bangladesh", "ip"),
	})

	assert.Equal(t, []model.Dataset{model.DatasetPOWER}, live.DatasetsUsed)
	assert.Empty(t, live.NASAInsights)
	assert.Equal(t, "Unable to analyze NASA data for agricultural insights.",
		Analyze([]*Result{{Dataset: model.DatasetPOWER, Success: true}}, model.QuestionAnalysis{}))
}
