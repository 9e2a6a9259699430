package search

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const (
	DefaultWikipediaURL = "https://en.wikipedia.org/w/api.php"
	wikipediaMaxChars   = 200
)

// Wikipedia returns the intro of the best-matching article.
type Wikipedia struct {
	baseURL    string
	httpClient *http.Client
}

func NewWikipediaWithOptions(baseURL string, httpClient *http.Client) *Wikipedia {
	return &Wikipedia{baseURL: httpx.BaseURL(baseURL, DefaultWikipediaURL), httpClient: httpx.Client(httpClient, 0)}
}

func (w *Wikipedia) Engine() model.SearchEngine { return model.EngineWikipedia }

func (w *Wikipedia) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"generator":   {"search"},
		"gsrsearch":   {query},
		"gsrlimit":    {"1"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
	}
	body, err := httpx.Get(ctx, w.httpClient, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", errx.WrapProvider("wikipedia", err)
	}
	var title, extract string
	gjson.GetBytes(body, "query.pages").ForEach(func(_, page gjson.Result) bool {
		title = page.Get("title").String()
		extract = page.Get("extract").String()
		return false
	})
	if title == "" {
		return "", nil
	}
	return core.Truncate("Page: "+title+"\nSummary: "+extract, wikipediaMaxChars), nil
}
