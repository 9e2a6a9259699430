package graph

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/datasets/search"
	"github.com/chashi-bhai/server/internal/agent/graph/conversations"
	"github.com/chashi-bhai/server/internal/agent/graph/nodes"
	"github.com/chashi-bhai/server/internal/agent/knowledge"
	"github.com/chashi-bhai/server/internal/agent/llm"
	"github.com/chashi-bhai/server/internal/agent/location"
	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/agent/repo"
)

type fakeTranslator struct{}

func (fakeTranslator) ToEnglish(_ context.Context, text string) (string, string) {
	if strings.Contains(text, "ধান") {
		return "When to plant rice?", "bn"
	}
	return text, "en"
}

func (fakeTranslator) FromEnglish(_ context.Context, text, lang string) string {
	if lang == "en" {
		return text
	}
	return "[" + lang + "] " + text
}

type fixedResolver struct {
	loc  model.Location
	reqs []location.Request
}

func (f *fixedResolver) Resolve(_ context.Context, req location.Request) model.Location {
	f.reqs = append(f.reqs, req)
	return f.loc
}

type fakeCollector struct {
	mu    sync.Mutex
	calls int
	last  datasets.Request
	live  model.LiveData
}

func (f *fakeCollector) Collect(_ context.Context, req datasets.Request) model.LiveData {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	return f.live
}

type stubIPProvider struct {
	c *model.LocationCandidate
}

func (stubIPProvider) Name() string { return "stub" }

func (s stubIPProvider) Locate(_ context.Context, _ string) (*model.LocationCandidate, error) {
	return s.c, nil
}

type fakeSearcher struct {
	engine model.SearchEngine
	text   string
}

func (f fakeSearcher) Engine() model.SearchEngine { return f.engine }

func (f fakeSearcher) Search(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

type recordingModel struct {
	mu      sync.Mutex
	calls   int
	prompts []*schema.Message
	content string
}

func (r *recordingModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.prompts = in
	msg := schema.AssistantMessage(r.content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 900, CompletionTokens: 120, TotalTokens: 1020}}
	return msg, nil
}

func (r *recordingModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := r.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type harness struct {
	pipeline  *Pipeline
	resolver  *fixedResolver
	collector *fakeCollector
	chat      *recordingModel
	users     *conversations.UserContextManager
	store     *cache.MemoryStore
}

func defaultSearchers() []search.Searcher {
	return []search.Searcher{
		fakeSearcher{engine: model.EngineWikipedia, text: "Boro rice is the dry-season rice crop of Bangladesh, transplanted in winter and harvested in spring."},
		fakeSearcher{engine: model.EngineArxiv, text: "Split nitrogen application improved boro rice yield in field trials."},
	}
}

func newHarness(t *testing.T, loc model.Location) *harness {
	t.Helper()
	r := &fixedResolver{loc: loc}
	h := newHarnessWith(t, r, defaultSearchers())
	h.resolver = r
	return h
}

func newHarnessWith(t *testing.T, locations nodes.LocationResolver, searchers []search.Searcher) *harness {
	t.Helper()

	store, err := cache.NewMemoryStore(100)
	require.NoError(t, err)
	kb, err := knowledge.Load()
	require.NoError(t, err)

	h := &harness{
		collector: &fakeCollector{},
		chat:      &recordingModel{content: "For Dhaka: apply urea in three splits and keep 2-5 cm of standing water during tillering."},
		users:     conversations.NewUserContextManager(repo.NewMemoryUserContextRepository(), model.ConversationConfig{TTL: time.Hour, MaxHistory: 20}),
		store:     store,
	}
	fixed := time.Date(2025, time.August, 5, 9, 0, 0, 0, time.UTC)
	cms := &llm.ChatModels{Response: h.chat, ModelName: "llama-3.3-70b-versatile", Mode: llm.ModeGroq}

	runnable, err := BuildGraph(context.Background(), &GraphConfig{
		Deps: &nodes.Deps{
			Language:  fakeTranslator{},
			Locations: locations,
			Users:     h.users,
			Knowledge: kb,
			Live:      h.collector,
			Cache:     store,
			LiveModel: cms.Live(),
			Now:       func() time.Time { return fixed },
		},
		ChatModels:  cms,
		Searchers:   searchers,
		ToolTimeout: time.Second,
	})
	require.NoError(t, err)
	h.pipeline = NewPipeline(runnable, cms)
	return h
}

func chat(t *testing.T, h *harness, msg string) *model.ChatResponse {
	t.Helper()
	resp, err := h.pipeline.Invoke(context.Background(), model.ChatInput{
		UserID:   "u-1",
		ClientIP: "203.0.113.7",
		Message:  msg,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func TestPipeline_GreetingIsCanned(t *testing.T) {
	h := newHarness(t, model.NewLocation(23.81, 90.41, "Dhaka", "ip"))

	resp := chat(t, h, "Hello")

	assert.Equal(t, "en", resp.DetectedLang)
	assert.Equal(t, "Hello", resp.TranslatedQuery)
	assert.Equal(t, "Dhaka", resp.UserLocation)
	assert.Empty(t, resp.NASADataUsed)
	assert.NotNil(t, resp.NASADataUsed)
	assert.NotContains(t, resp.Reply, "Data Sources")
	assert.Zero(t, h.chat.calls)
	assert.Zero(t, h.collector.calls)

	uc, err := h.users.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, uc.QueryHistory, "canned replies are not remembered")
}

func TestPipeline_ExpressDefinition(t *testing.T) {
	h := newHarness(t, model.UnresolvedLocation(""))

	resp := chat(t, h, "What is nitrogen?")

	assert.Contains(t, resp.Reply, "Nitrogen (N)")
	assert.Contains(t, resp.Reply, "Data Sources")
	assert.Equal(t, "Location not detected", resp.UserLocation)
	assert.Zero(t, h.chat.calls)
	assert.Zero(t, h.collector.calls, "no coordinates, no live data")

	uc, err := h.users.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, uc.QueryHistory, 1)
	assert.Equal(t, "What is nitrogen?", uc.QueryHistory[0].Query)
}

func TestPipeline_TranslatesBothWays(t *testing.T) {
	h := newHarness(t, model.NewLocation(24.89, 91.87, "Sylhet", "query"))

	resp := chat(t, h, "ধান কখন লাগাব?")

	assert.Equal(t, "bn", resp.DetectedLang)
	assert.Equal(t, "When to plant rice?", resp.TranslatedQuery)
	assert.True(t, strings.HasPrefix(resp.Reply, "[bn] "))
	assert.Contains(t, resp.Reply, "Planting Timing for Sylhet")
	assert.Zero(t, h.chat.calls)
}

func TestPipeline_ModelPath(t *testing.T) {
	h := newHarness(t, model.NewLocation(23.81, 90.41, "Dhaka", "ip"))
	h.collector.live = model.LiveData{DatasetsUsed: []model.Dataset{model.DatasetPOWER, model.DatasetMODIS}}

	resp := chat(t, h, "How do I increase yield of boro rice?")

	assert.Equal(t, []string{"POWER", "MODIS"}, resp.NASADataUsed)
	assert.Contains(t, resp.Reply, "apply urea in three splits")
	assert.Contains(t, resp.Reply, "NASA Satellite (POWER, MODIS)")
	assert.Equal(t, 1, h.collector.calls)
	require.Equal(t, 1, h.chat.calls)

	var user string
	for _, m := range h.chat.prompts {
		if m.Role == schema.User {
			user = m.Content
		}
	}
	assert.Contains(t, user, "How do I increase yield of boro rice?")
	assert.Contains(t, user, "Boro rice is the dry-season rice crop")
	assert.Contains(t, user, "Split nitrogen application")

	uc, err := h.users.Get(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, uc.QueryHistory, 1)
	assert.Contains(t, uc.CropInterests, "rice")
	assert.Equal(t, "Dhaka", uc.Location)
}

func TestPipeline_SecondAskHitsResponseCache(t *testing.T) {
	h := newHarness(t, model.NewLocation(23.81, 90.41, "Dhaka", "ip"))

	first := chat(t, h, "How do I increase yield of boro rice?")
	second := chat(t, h, "How do I increase yield of boro rice?")

	assert.Equal(t, 1, h.chat.calls)
	assert.Equal(t, first.Reply, second.Reply)
}

func TestPipeline_LocateUsesStoredLocation(t *testing.T) {
	h := newHarness(t, model.NewLocation(22.70, 90.35, "Barishal", "stored"))

	chat(t, h, "What is compost?")
	chat(t, h, "What is compost?")

	require.Len(t, h.resolver.reqs, 2)
	assert.Empty(t, h.resolver.reqs[0].Stored)
	assert.Equal(t, "Barishal", h.resolver.reqs[1].Stored)
	assert.Equal(t, "203.0.113.7", h.resolver.reqs[1].ClientIP)
}

func TestPipeline_DeviceCoordinates(t *testing.T) {
	store, err := cache.NewMemoryStore(10)
	require.NoError(t, err)
	ip := stubIPProvider{c: &model.LocationCandidate{Latitude: 23.80, Longitude: 90.40, City: "Dhaka", Region: "Dhaka Division", Country: "Bangladesh", Confidence: 0.9}}
	resolver := location.NewResolver(
		location.NewIPLocator([]location.IPProvider{ip}, store, 0, nil),
		location.NewGeocoder(),
		nil,
	)
	h := newHarnessWith(t, resolver, defaultSearchers())
	h.collector.live = model.LiveData{DatasetsUsed: []model.Dataset{model.DatasetPOWER, model.DatasetGLDAS}}

	resp, err := h.pipeline.Invoke(context.Background(), model.ChatInput{
		UserID:         "u-2",
		ClientIP:       "203.0.113.7",
		Message:        "How do I increase yield of boro rice?",
		ManualLocation: "23.81,90.41",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.UserLocation, "Dhaka")
	assert.NotEmpty(t, resp.NASADataUsed)
	allowed := model.DatasetNames(model.AllDatasets)
	for _, ds := range resp.NASADataUsed {
		assert.Contains(t, allowed, ds)
	}

	require.Equal(t, 1, h.collector.calls)
	lat, lon := h.collector.last.Location.Coords()
	assert.Equal(t, 23.81, lat)
	assert.Equal(t, 90.41, lon)
}

func TestPipeline_NoSearchEngines(t *testing.T) {
	h := newHarnessWith(t, &fixedResolver{loc: model.NewLocation(23.81, 90.41, "Dhaka", "ip")}, nil)

	resp := chat(t, h, "How do I increase yield of boro rice?")

	assert.Contains(t, resp.Reply, "apply urea in three splits")
	require.Equal(t, 1, h.chat.calls)
	for _, m := range h.chat.prompts {
		assert.NotContains(t, m.Content, "DATA:")
	}
}

func TestBuildGraph_Validation(t *testing.T) {
	_, err := BuildGraph(context.Background(), nil)
	assert.Error(t, err)

	_, err = BuildGraph(context.Background(), &GraphConfig{
		ChatModels: &llm.ChatModels{Response: llm.DemoChatModel{}},
		Deps:       &nodes.Deps{Language: fakeTranslator{}},
	})
	assert.ErrorContains(t, err, "graph deps are incomplete")
}
