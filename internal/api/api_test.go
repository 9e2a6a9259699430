package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/llm"
	"github.com/chashi-bhai/server/internal/agent/model"
)

type fakeChatter struct {
	got  model.ChatInput
	resp *model.ChatResponse
	err  error
}

func (f *fakeChatter) Invoke(_ context.Context, in model.ChatInput) (*model.ChatResponse, error) {
	f.got = in
	return f.resp, f.err
}

type fakeLocator struct{}

func (fakeLocator) Locate(_ context.Context, _ string) model.Location {
	return model.NewLocation(23.81, 90.41, "Dhaka", "ip-api.com")
}

type fakeProbe struct{ err error }

func (f fakeProbe) FetchWindow(_ context.Context, _, _ float64, _ int) (*datasets.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &datasets.Result{
		Dataset: model.DatasetPOWER,
		Success: true,
		Series:  map[string][]float64{"T2M": {20, 22}, "PRECTOTCORR": {1, 2}},
	}, nil
}

func newServer(t *testing.T, chat Chatter, origins string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Options{
		Chat:           chat,
		Locator:        fakeLocator{},
		Probe:          fakeProbe{},
		Debug:          DebugInfo{GroqAPIKey: "gsk_1234567890abcdef", Provider: "groq", Mode: "groq", Host: "0.0.0.0", Port: 8000},
		AllowedOrigins: origins,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postChat(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChat_OK(t *testing.T) {
	chat := &fakeChatter{resp: &model.ChatResponse{
		Reply:           "For Dhaka: ...",
		DetectedLang:    "bn",
		TranslatedQuery: "When to plant rice?",
		UserLocation:    "ঢাকা",
		NASADataUsed:    []string{"POWER"},
		PerformanceMs:   1200,
	}}
	srv := newServer(t, chat, "*")

	resp := postChat(t, srv, `{"message":"ধান কখন লাগাব?","location":"23.81,90.41"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "For Dhaka: ...", body["reply"])
	assert.Equal(t, "bn", body["detectedLang"])
	assert.Equal(t, "ঢাকা", body["userLocation"])
	assert.Equal(t, []any{"POWER"}, body["nasaDataUsed"])
	assert.EqualValues(t, 1200, body["performanceMs"])

	assert.Equal(t, "ধান কখন লাগাব?", chat.got.Message)
	assert.Equal(t, "23.81,90.41", chat.got.ManualLocation)
	assert.Equal(t, "127.0.0.1", chat.got.ClientIP)
	assert.Equal(t, UserID("127.0.0.1"), chat.got.UserID)
}

func TestChat_EmptyMessage(t *testing.T) {
	chat := &fakeChatter{}
	srv := newServer(t, chat, "*")

	for _, body := range []string{`{"message":"   "}`, `{}`, `not json`} {
		resp := postChat(t, srv, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, chat.got.Message)
}

func TestChat_PipelineErrorIsApology(t *testing.T) {
	srv := newServer(t, &fakeChatter{err: errors.New("graph blew up")}, "*")

	resp := postChat(t, srv, `{"message":"how to grow jute?"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body model.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, llm.ApologyText, body.Reply)
	assert.Equal(t, "Location not detected", body.UserLocation)
	assert.NotNil(t, body.NASADataUsed)
}

func TestHealth(t *testing.T) {
	srv := newServer(t, &fakeChatter{}, "*")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok", "app": "Chashi Bhai"}, body)
}

func TestDebug_OnlyKeyPrefix(t *testing.T) {
	srv := newServer(t, &fakeChatter{}, "*")

	resp, err := http.Get(srv.URL + "/debug")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["groq_key_present"])
	assert.EqualValues(t, 20, body["groq_key_length"])
	assert.Equal(t, "gsk_123456...", body["groq_key_prefix"])
	assert.EqualValues(t, 8000, body["port"])
}

func TestLocationTest(t *testing.T) {
	srv := newServer(t, &fakeChatter{}, "*")

	resp, err := http.Get(srv.URL + "/location-test")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "127.0.0.1", body["client_ip"])
	assert.Equal(t, "Dhaka", body["detected_location"])
	assert.Equal(t, true, body["is_localhost"])
}

func TestProbeNASA(t *testing.T) {
	srv := newServer(t, &fakeChatter{}, "*")

	resp, err := http.Get(srv.URL + "/test-nasa-debug")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["summary"], "Total Rain (7d): 3.0mm")
}

func TestCORS(t *testing.T) {
	srv := newServer(t, &fakeChatter{}, "https://chashi.example, https://admin.chashi.example")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://chashi.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://chashi.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseOriginsAndUserID(t *testing.T) {
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"a", "b"}, ParseOrigins(" a , ,b"))

	id := UserID("203.0.113.7")
	assert.Len(t, id, 16)
	assert.Equal(t, id, UserID("203.0.113.7"))
	assert.NotEqual(t, id, UserID("203.0.113.8"))
}
