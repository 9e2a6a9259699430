package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const (
	DefaultDuckDuckGoURL = "https://api.duckduckgo.com"
	duckDuckGoMaxResults = 2
)

// DuckDuckGo uses the Instant Answer API: the abstract first, then related
// topics.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

func NewDuckDuckGoWithOptions(baseURL string, httpClient *http.Client) *DuckDuckGo {
	return &DuckDuckGo{baseURL: httpx.BaseURL(baseURL, DefaultDuckDuckGoURL), httpClient: httpx.Client(httpClient, 0)}
}

func (d *DuckDuckGo) Engine() model.SearchEngine { return model.EngineDuckDuckGo }

func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
		"kl":            {"in-en"},
	}
	body, err := httpx.Get(ctx, d.httpClient, d.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", errx.WrapProvider("duckduckgo", err)
	}

	var snippets []string
	if a := strings.TrimSpace(gjson.GetBytes(body, "AbstractText").String()); a != "" {
		snippets = append(snippets, a)
	}
	gjson.GetBytes(body, "RelatedTopics").ForEach(func(_, t gjson.Result) bool {
		if len(snippets) >= duckDuckGoMaxResults {
			return false
		}
		if text := strings.TrimSpace(t.Get("Text").String()); text != "" {
			snippets = append(snippets, text)
		}
		return true
	})
	return strings.Join(snippets, " "), nil
}
