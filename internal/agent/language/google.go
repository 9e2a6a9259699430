package language

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/chashi-bhai/server/internal/agent/model"
	errx "github.com/chashi-bhai/server/internal/core/error"
	"github.com/chashi-bhai/server/pkg/httpx"
)

const googleTranslateURL = "https://translate.googleapis.com"

// Translator turns text from one language into another. src may be "auto";
// the detected source language is returned alongside the text.
type Translator interface {
	Translate(ctx context.Context, text, src, tgt string) (translated, detected string, err error)
}

// GoogleTranslator calls the public gtx endpoint. No key is needed.
type GoogleTranslator struct {
	baseURL    string
	httpClient *http.Client
}

func NewGoogleTranslator(cfg model.TranslationConfig) *GoogleTranslator {
	return NewGoogleTranslatorWithOptions(cfg.BaseURL, httpx.Client(nil, cfg.Timeout))
}

// NewGoogleTranslatorWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleTranslatorWithOptions(baseURL string, httpClient *http.Client) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL:    httpx.BaseURL(baseURL, googleTranslateURL),
		httpClient: httpx.Client(httpClient, 0),
	}
}

func (g *GoogleTranslator) Translate(ctx context.Context, text, src, tgt string) (string, string, error) {
	if src == "" || src == "unknown" {
		src = "auto"
	}
	params := url.Values{
		"client": {"gtx"},
		"sl":     {src},
		"tl":     {tgt},
		"dt":     {"t"},
		"q":      {text},
	}
	body, err := httpx.Get(ctx, g.httpClient, g.baseURL+"/translate_a/single?"+params.Encode(), nil)
	if err != nil {
		return "", "", errx.WrapProvider("google-translate", err)
	}
	if !gjson.ValidBytes(body) {
		return "", "", errx.WrapProvider("google-translate", fmt.Errorf("malformed response"))
	}

	// [[["translated","source",...], ...], null, "detected", ...]
	var sb strings.Builder
	gjson.GetBytes(body, "0").ForEach(func(_, seg gjson.Result) bool {
		sb.WriteString(seg.Get("0").String())
		return true
	})
	detected := gjson.GetBytes(body, "2").String()
	if detected == "" {
		detected = src
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", detected, errx.WrapProvider("google-translate", errx.ErrEmptyResponse)
	}
	return sb.String(), detected, nil
}

var _ Translator = (*GoogleTranslator)(nil)
