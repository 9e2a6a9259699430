package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const (
	DefaultArxivURL = "http://export.arxiv.org/api/query"
	arxivMaxChars   = 200
)

type arxivFeed struct {
	Entries []struct {
		Title     string `xml:"title"`
		Summary   string `xml:"summary"`
		Published string `xml:"published"`
		Authors   []struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// Arxiv returns the top preprint's metadata and the start of its abstract.
type Arxiv struct {
	baseURL    string
	httpClient *http.Client
}

func NewArxivWithOptions(baseURL string, httpClient *http.Client) *Arxiv {
	return &Arxiv{baseURL: httpx.BaseURL(baseURL, DefaultArxivURL), httpClient: httpx.Client(httpClient, 0)}
}

func (a *Arxiv) Engine() model.SearchEngine { return model.EngineArxiv }

func (a *Arxiv) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {"1"},
	}
	body, err := httpx.Get(ctx, a.httpClient, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", errx.WrapProvider("arxiv", err)
	}
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", errx.WrapProvider("arxiv", fmt.Errorf("decode atom feed: %w", err))
	}
	if len(feed.Entries) == 0 {
		return "", nil
	}
	e := feed.Entries[0]
	authors := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		authors = append(authors, au.Name)
	}
	published := e.Published
	if len(published) >= 10 {
		published = published[:10]
	}
	return fmt.Sprintf("Published: %s\nTitle: %s\nAuthors: %s\nSummary: %s",
		published, collapse(e.Title), strings.Join(authors, ", "), core.Truncate(collapse(e.Summary), arxivMaxChars)), nil
}

// collapse folds the line breaks Atom titles and abstracts are wrapped with.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
