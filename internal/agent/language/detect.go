package language

import (
	"strings"
	"unicode"

	xlang "golang.org/x/text/language"
)

// englishIndicators are counted as whole words; two hits mean English.
var englishIndicators = []string{
	"the", "and", "is", "are", "was", "were", "have", "has", "had", "do", "does", "did",
	"crop", "rice", "wheat", "soil", "water", "plant", "farm", "seed",
}

// asciiRatio is the share of runes below 128.
func asciiRatio(s string) float64 {
	total, ascii := 0, 0
	for _, r := range s {
		total++
		if r < 128 {
			ascii++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ascii) / float64(total)
}

func englishScore(s string) int {
	padded := " " + strings.ToLower(s) + " "
	n := 0
	for _, w := range englishIndicators {
		if strings.Contains(padded, " "+w+" ") {
			n++
		}
	}
	return n
}

// LooksEnglish is the cheap check run before any network call.
func LooksEnglish(s string) bool {
	return asciiRatio(s) > 0.7 || englishScore(s) >= 2
}

// ScriptLanguage recognises the scripts farmers in the region write in.
// It returns "" when none is present.
func ScriptLanguage(s string) string {
	var hasDevanagari, hasArabic bool
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Bengali, r) && unicode.IsLetter(r):
			return "bn"
		case unicode.Is(unicode.Devanagari, r) && unicode.IsLetter(r):
			hasDevanagari = true
		case unicode.Is(unicode.Arabic, r) && unicode.IsLetter(r):
			hasArabic = true
		}
	}
	switch {
	case hasDevanagari:
		return "hi"
	case hasArabic:
		return "ar"
	}
	return ""
}

// ContainsBengali reports whether any Bengali letter is present.
func ContainsBengali(s string) bool {
	return ScriptLanguage(s) == "bn"
}

var langAliases = map[string]string{
	"bn-bd": "bn",
	"bn-in": "bn",
	"zh-cn": "zh",
	"zh-tw": "zh",
	"pt-br": "pt",
	"en-us": "en",
	"hi-in": "hi",
}

// NormalizeLang reduces a detected tag to the base language used for the
// outbound translation.
func NormalizeLang(tag string) string {
	l := strings.ToLower(strings.TrimSpace(tag))
	switch l {
	case "", "unknown", "auto":
		return l
	}
	if v, ok := langAliases[l]; ok {
		return v
	}
	if t, err := xlang.Parse(l); err == nil {
		if base, conf := t.Base(); conf != xlang.No {
			return base.String()
		}
	}
	return strings.SplitN(l, "-", 2)[0]
}
