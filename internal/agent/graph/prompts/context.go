package prompts

import (
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

const (
	fewShotBanner   = "===== FEW-SHOT LEARNING EXAMPLES (STUDY THESE PATTERNS) ====="
	knowledgeBanner = "===== RAG KNOWLEDGE BASE (CURATED AGRICULTURAL FACTS) ====="
	userBanner      = "===== USER CONTEXT (PERSONALIZED TO THIS FARMER) ====="
	wideRule        = "============================================================"
	userRule        = "======================================================="

	// maxSnippet bounds one engine's text inside the DATA block.
	maxSnippet = 500
)

// AssembleContext renders the layered context in its fixed order: few-shot,
// knowledge, personalization, NASA insights, FAO, local research, search.
// Each layer appears at most once.
func AssembleContext(layers model.ContextLayers, live model.LiveData) string {
	var b strings.Builder

	if layers.FewShot != "" {
		b.WriteString("\n" + fewShotBanner + "\n" + layers.FewShot + "\n" + wideRule + "\n\n")
	}

	knowledge := joinNonEmpty("\n\n", layers.Knowledge, layers.Specialized)
	if knowledge != "" {
		b.WriteString("\n" + knowledgeBanner + "\n" + knowledge + "\n" + wideRule + "\n\n")
	}

	if layers.User != "" {
		b.WriteString("\n" + userBanner + "\n" + layers.User + "\n" + userRule + "\n\n")
	}

	if live.NASAInsights != "" {
		b.WriteString("\n" + live.NASAInsights + "\n")
	}
	for _, layer := range []string{live.FAO, live.LocalResearch, live.Search} {
		if layer != "" {
			b.WriteString(layer + "\n")
		}
	}
	return b.String()
}

// Snippet is one search engine's answer gathered at generation time.
type Snippet struct {
	Engine model.SearchEngine
	Text   string
}

var snippetLabels = map[model.SearchEngine]string{
	model.EngineWikipedia:  "**Wikipedia Knowledge:**",
	model.EngineArxiv:      "**Scientific Research (Arxiv):**",
	model.EngineDuckDuckGo: "**Current Information (Web):**",
}

// DataBlock folds search snippets into the text placed after "DATA:" in the
// answer prompt. Snippets are ordered Wikipedia, Arxiv, DuckDuckGo; near-empty
// ones are skipped.
func DataBlock(snippets []Snippet) string {
	byEngine := make(map[model.SearchEngine]string, len(snippets))
	for _, s := range snippets {
		if len(strings.TrimSpace(s.Text)) > 10 {
			byEngine[s.Engine] = core.Truncate(s.Text, maxSnippet)
		}
	}

	var parts []string
	for _, e := range model.AllEngines {
		if text, ok := byEngine[e]; ok {
			parts = append(parts, snippetLabels[e]+" "+text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
