// Package language detects the farmer's language and moves text between it
// and English, keeping agronomic terms intact on both legs.
package language

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/chashi-bhai/server/internal/agent/cache"
	logx "github.com/chashi-bhai/server/pkg/logger"
)

const (
	// chunkThreshold is the size above which outbound text is split.
	chunkThreshold = 4500
	chunkSize      = 1500
	maxParallel    = 10
)

type glossaryTerm struct {
	bn, en string
}

// bengaliGlossary is applied before translation so crop names survive.
// Placeholder indices follow this order.
var bengaliGlossary = []glossaryTerm{
	{"ধান", "rice"},
	{"বোরো", "Boro rice"},
	{"আমন", "Aman rice"},
	{"আউশ", "Aus rice"},
	{"পাট", "jute"},
	{"গম", "wheat"},
	{"আলু", "potato"},
	{"সার", "fertilizer"},
	{"ইউরিয়া", "urea"},
	{"চাষী", "farmer"},
	{"জমি", "land"},
	{"ফসল", "crop"},
	{"বীজ", "seed"},
	{"মাটি", "soil"},
}

// techTerms stay verbatim in outbound translations.
var techTerms = []string{"BRRI", "BARI", "BINA", "NASA", "POWER", "IoT", "pH", "NPK", "AWD", "SRI", "FAO", "DAE", "BARC"}

func placeholder(i int) string { return fmt.Sprintf("__T%d__", i) }

type translationResult struct {
	Text         string `json:"text"`
	DetectedLang string `json:"detected_lang"`
}

// Service wraps a Translator with detection, glossary handling and caching.
type Service struct {
	translator Translator
	cache      cache.Store
}

func NewService(translator Translator, store cache.Store) *Service {
	return &Service{translator: translator, cache: store}
}

// ToEnglish returns the English working text and the detected language.
// It never fails: on any error the input comes back unchanged.
func (s *Service) ToEnglish(ctx context.Context, text string) (string, string) {
	if strings.TrimSpace(text) == "" {
		return text, "unknown"
	}
	text = norm.NFC.String(text)

	if LooksEnglish(text) {
		return text, "en"
	}

	key := cache.TranslationKey("auto", "en", text)
	if hit, ok := cache.GetJSON[translationResult](ctx, s.cache, key, cache.TTLTranslation); ok {
		logx.Debug().Str("lang", hit.DetectedLang).Msg("translation cache hit")
		return hit.Text, hit.DetectedLang
	}

	detected := ScriptLanguage(text)
	src := detected
	if src == "" {
		src = "auto"
	}

	work := text
	var preserved []glossaryTerm
	var indices []int
	if detected == "bn" {
		for i, term := range bengaliGlossary {
			if strings.Contains(work, term.bn) {
				work = strings.ReplaceAll(work, term.bn, placeholder(i))
				preserved = append(preserved, term)
				indices = append(indices, i)
			}
		}
	}

	translated, providerLang, err := s.translator.Translate(ctx, work, src, "en")
	if detected == "" {
		detected = providerLang
	}
	if detected == "" {
		detected = "auto"
	}
	if err != nil {
		logx.Warn().Err(err).Str("lang", detected).Msg("translation to english failed; using original text")
		return text, detected
	}

	if detected == "en" {
		cache.SetJSON(ctx, s.cache, key, translationResult{Text: text, DetectedLang: "en"})
		return text, "en"
	}

	for j, term := range preserved {
		translated = strings.ReplaceAll(translated, placeholder(indices[j]), term.en)
	}
	if strings.TrimSpace(translated) == "" {
		return text, detected
	}

	cache.SetJSON(ctx, s.cache, key, translationResult{Text: translated, DetectedLang: detected})
	logx.Debug().Str("lang", detected).Int("chars", len([]rune(translated))).Msg("translated to english")
	return translated, detected
}

// FromEnglish translates an answer back into the farmer's language.
// English and unknown targets are returned untouched, as is any text the
// provider fails on.
func (s *Service) FromEnglish(ctx context.Context, text, targetLang string) string {
	lang := NormalizeLang(targetLang)
	if strings.TrimSpace(text) == "" || lang == "" || lang == "en" || lang == "unknown" || lang == "auto" {
		return text
	}

	key := cache.TranslateBackKey(targetLang, text)
	if hit, ok := cache.GetString(ctx, s.cache, key, cache.TTLTranslateBack); ok {
		return hit
	}

	work := text
	var kept []int
	for i, term := range techTerms {
		if strings.Contains(work, term) {
			work = strings.ReplaceAll(work, term, placeholder(i))
			kept = append(kept, i)
		}
	}

	var translated string
	if len([]rune(work)) > chunkThreshold {
		translated = s.translateChunks(ctx, chunkSentences(splitSentences(work), chunkSize), lang)
	} else {
		out, _, err := s.translator.Translate(ctx, work, "en", lang)
		if err != nil || out == "" {
			if err != nil {
				logx.Warn().Err(err).Str("lang", lang).Msg("translate back failed; keeping english")
			}
			out = work
		}
		translated = out
	}

	for _, i := range kept {
		translated = strings.ReplaceAll(translated, placeholder(i), techTerms[i])
	}
	if strings.TrimSpace(translated) == "" {
		return text
	}
	cache.SetJSON(ctx, s.cache, key, translated)
	return translated
}

// translateChunks translates in parallel and reassembles in order. A failed
// chunk falls back to its English source.
func (s *Service) translateChunks(ctx context.Context, chunks []string, lang string) string {
	out := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(chunks), maxParallel))
	for i, c := range chunks {
		g.Go(func() error {
			t, _, err := s.translator.Translate(gctx, c, "en", lang)
			if err != nil || t == "" {
				out[i] = c
				return nil
			}
			out[i] = t
			return nil
		})
	}
	_ = g.Wait()
	return strings.Join(out, " ")
}

// splitSentences splits after ., ! or ? when whitespace follows, dropping
// the whitespace.
func splitSentences(s string) []string {
	var parts []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		parts = append(parts, string(runes[start:i+1]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

// chunkSentences packs sentences into chunks of roughly size runes, joining with spaces.
func chunkSentences(sentences []string, size int) []string {
	var chunks, current []string
	n := 0
	for _, sent := range sentences {
		l := len([]rune(sent))
		if n+l > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = []string{sent}
			n = l
			continue
		}
		current = append(current, sent)
		n += l
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
