package language

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/cache"
)

type call struct {
	text, src, tgt string
}

// fakeTranslator upper-cases text and records calls.
type fakeTranslator struct {
	mu       sync.Mutex
	calls    []call
	detected string
	err      error
	fn       func(text string) string
}

func (f *fakeTranslator) Translate(_ context.Context, text, src, tgt string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{text, src, tgt})
	f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	if f.fn != nil {
		return f.fn(text), f.detected, nil
	}
	return strings.ToUpper(text), f.detected, nil
}

func newStore(t *testing.T) cache.Store {
	t.Helper()
	s, err := cache.NewMemoryStore(100)
	require.NoError(t, err)
	return s
}

func TestDetection(t *testing.T) {
	assert.True(t, LooksEnglish("How do I grow rice?"))
	assert.False(t, LooksEnglish("ধান চাষ কিভাবে করব"))
	assert.Equal(t, "bn", ScriptLanguage("ধান"))
	assert.Equal(t, "hi", ScriptLanguage("धान की खेती"))
	assert.Equal(t, "ar", ScriptLanguage("زراعة الأرز"))
	assert.Equal(t, "", ScriptLanguage("bonjour"))
	assert.True(t, ContainsBengali("Dhaka ঢাকা"))
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, "bn", NormalizeLang("bn-BD"))
	assert.Equal(t, "zh", NormalizeLang("zh-tw"))
	assert.Equal(t, "pt", NormalizeLang("pt-br"))
	assert.Equal(t, "es", NormalizeLang("es-419"))
	assert.Equal(t, "unknown", NormalizeLang("unknown"))
}

func TestToEnglishShortCircuitsEnglish(t *testing.T) {
	tr := &fakeTranslator{}
	s := NewService(tr, newStore(t))
	out, lang := s.ToEnglish(context.Background(), "When should I plant Boro rice?")
	assert.Equal(t, "When should I plant Boro rice?", out)
	assert.Equal(t, "en", lang)
	assert.Empty(t, tr.calls)

	out, lang = s.ToEnglish(context.Background(), "  ")
	assert.Equal(t, "unknown", lang)
	assert.Equal(t, "  ", out)
}

func TestToEnglishPreservesBengaliGlossary(t *testing.T) {
	tr := &fakeTranslator{fn: func(text string) string {
		// placeholders come back intact inside the translated sentence
		return "how to grow " + strings.Fields(text)[0] + " here"
	}}
	s := NewService(tr, newStore(t))
	ctx := context.Background()

	out, lang := s.ToEnglish(ctx, "ধান চাষ")
	assert.Equal(t, "bn", lang)
	assert.Equal(t, "how to grow rice here", out)
	require.Len(t, tr.calls, 1)
	assert.Equal(t, "__T0__ চাষ", tr.calls[0].text)
	assert.Equal(t, "bn", tr.calls[0].src)

	// second call is served from cache
	out2, _ := s.ToEnglish(ctx, "ধান চাষ")
	assert.Equal(t, out, out2)
	assert.Len(t, tr.calls, 1)
}

func TestToEnglishFallsBackOnError(t *testing.T) {
	tr := &fakeTranslator{err: errors.New("quota")}
	s := NewService(tr, newStore(t))
	out, lang := s.ToEnglish(context.Background(), "ধান চাষ")
	assert.Equal(t, "ধান চাষ", out)
	assert.Equal(t, "bn", lang)
}

func TestToEnglishUsesProviderDetection(t *testing.T) {
	tr := &fakeTranslator{detected: "fr"}
	s := NewService(tr, newStore(t))
	// accented text below the ascii threshold with no known script
	out, lang := s.ToEnglish(context.Background(), "éééé çççç")
	assert.Equal(t, "fr", lang)
	assert.Equal(t, "ÉÉÉÉ ÇÇÇÇ", out)
}

func TestFromEnglishKeepsTechTerms(t *testing.T) {
	tr := &fakeTranslator{fn: func(text string) string { return "[" + text + "]" }}
	s := NewService(tr, newStore(t))
	ctx := context.Background()

	out := s.FromEnglish(ctx, "Use BRRI dhan28 and test pH.", "bn-BD")
	assert.Equal(t, "[Use BRRI dhan28 and test pH.]", out)
	require.Len(t, tr.calls, 1)
	assert.Equal(t, "Use __T0__ dhan28 and test __T6__.", tr.calls[0].text)
	assert.Equal(t, "bn", tr.calls[0].tgt)

	// cached for the same target tag
	_ = s.FromEnglish(ctx, "Use BRRI dhan28 and test pH.", "bn-BD")
	assert.Len(t, tr.calls, 1)
}

func TestFromEnglishSkipsEnglishAndUnknown(t *testing.T) {
	tr := &fakeTranslator{}
	s := NewService(tr, newStore(t))
	assert.Equal(t, "hi", s.FromEnglish(context.Background(), "hi", "en-US"))
	assert.Equal(t, "hi", s.FromEnglish(context.Background(), "hi", "unknown"))
	assert.Empty(t, tr.calls)
}

func TestFromEnglishChunksLongText(t *testing.T) {
	tr := &fakeTranslator{fn: func(text string) string { return text }}
	s := NewService(tr, newStore(t))

	sentence := strings.Repeat("a", 99) + "."
	long := strings.TrimSpace(strings.Repeat(sentence+" ", 50)) // 5049 runes
	out := s.FromEnglish(context.Background(), long, "bn")

	assert.Equal(t, long, out)
	assert.Len(t, tr.calls, 4)
	for _, c := range tr.calls {
		assert.LessOrEqual(t, len(c.text), 1500+20)
	}
}

func TestSplitAndChunkSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two!", "Three?", "ok"}, splitSentences("One. Two!  Three? ok"))
	assert.Equal(t, []string{"v1.2 stays"}, splitSentences("v1.2 stays"))
	assert.Equal(t, []string{"aa bb", "cc"}, chunkSentences([]string{"aa", "bb", "cc"}, 4))
}

func TestGoogleTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "gtx", r.URL.Query().Get("client"))
		assert.Equal(t, "en", r.URL.Query().Get("tl"))
		_, _ = w.Write([]byte(`[[["How to grow ","ধান ",null,null,1],["rice?","চাষ?",null,null,1]],null,"bn"]`))
	}))
	defer srv.Close()

	g := NewGoogleTranslatorWithOptions(srv.URL, srv.Client())
	out, detected, err := g.Translate(context.Background(), "ধান চাষ?", "", "en")
	require.NoError(t, err)
	assert.Equal(t, "How to grow rice?", out)
	assert.Equal(t, "bn", detected)
}

func TestGoogleTranslatorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGoogleTranslatorWithOptions(srv.URL, srv.Client())
	_, _, err := g.Translate(context.Background(), "x", "en", "bn")
	assert.Error(t, err)
}
