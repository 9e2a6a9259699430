package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/agent/model"
)

func TestWikipedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("generator"))
		assert.Equal(t, "boro rice", r.URL.Query().Get("gsrsearch"))
		w.Write([]byte(`{"query":{"pages":{"123":{"title":"Boro rice","extract":"` + strings.Repeat("x", 300) + `"}}}}`))
	}))
	defer srv.Close()

	out, err := NewWikipediaWithOptions(srv.URL, srv.Client()).Search(context.Background(), "boro rice")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Page: Boro rice\nSummary: xxx"))
	assert.Equal(t, 200, len([]rune(out)))
}

func TestWikipediaNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"batchcomplete":""}`))
	}))
	defer srv.Close()

	out, err := NewWikipediaWithOptions(srv.URL, srv.Client()).Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDuckDuckGo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"AbstractText":"Jute is a fibre crop.","RelatedTopics":[
			{"Text":"Jute cultivation in Bangladesh"},
			{"Text":"Jute products"},
			{"Topics":[]}]}`))
	}))
	defer srv.Close()

	out, err := NewDuckDuckGoWithOptions(srv.URL, srv.Client()).Search(context.Background(), "jute")
	require.NoError(t, err)
	assert.Equal(t, "Jute is a fibre crop. Jute cultivation in Bangladesh", out)
}

func TestArxiv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:soil salinity", r.URL.Query().Get("search_query"))
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <published>2021-03-04T10:00:00Z</published>
    <title>Soil salinity
      in coastal Bangladesh</title>
    <summary>We study salinity.</summary>
    <author><name>A. Rahman</name></author>
    <author><name>B. Karim</name></author>
  </entry>
</feed>`))
	}))
	defer srv.Close()

	out, err := NewArxivWithOptions(srv.URL, srv.Client()).Search(context.Background(), "soil salinity")
	require.NoError(t, err)
	assert.Equal(t, "Published: 2021-03-04\nTitle: Soil salinity in coastal Bangladesh\nAuthors: A. Rahman, B. Karim\nSummary: We study salinity.", out)
}

func TestArxivHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewArxivWithOptions(srv.URL, srv.Client()).Search(context.Background(), "x")
	assert.Error(t, err)
}

type countingSearcher struct {
	text  string
	calls atomic.Int32
}

func (c *countingSearcher) Engine() model.SearchEngine { return model.EngineWikipedia }

func (c *countingSearcher) Search(context.Context, string) (string, error) {
	c.calls.Add(1)
	return c.text, nil
}

func TestCachedSkipsEmptySnippets(t *testing.T) {
	store, err := cache.NewMemoryStore(10)
	require.NoError(t, err)
	ctx := context.Background()

	hit := &countingSearcher{text: "snippet"}
	s := Cached(hit, store, nil)
	s.Search(ctx, "q")
	out, _ := s.Search(ctx, "q")
	assert.Equal(t, "snippet", out)
	assert.EqualValues(t, 1, hit.calls.Load())

	empty := &countingSearcher{}
	s = Cached(empty, store, nil)
	s.Search(ctx, "other")
	s.Search(ctx, "other")
	assert.EqualValues(t, 2, empty.calls.Load())
}
