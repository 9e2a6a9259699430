// Package parsers cleans model answers and renders them for the chat UI.
package parsers

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxContentLen bounds what Format will process.
const maxContentLen = 128 * 1024

// forbiddenLines are meta-commentary openers the prompt forbids; any line
// that still starts with one is dropped.
var forbiddenLines = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^Step\s*\d+[:\-\s].*$`),
	regexp.MustCompile(`(?im)^Analysis[:\-\s].*$`),
	regexp.MustCompile(`(?im)^Research[:\-\s].*$`),
	regexp.MustCompile(`(?im)^Based on[:\-\s].*$`),
	regexp.MustCompile(`(?im)^First[,:\-\s].*$`),
	regexp.MustCompile(`(?im)^Let me\s.*$`),
	regexp.MustCompile(`(?im)^I will\s.*$`),
	regexp.MustCompile(`(?im)^\*\*Step\s*\d+.*$`),
	regexp.MustCompile(`(?im)^\*\*Analysis.*$`),
	regexp.MustCompile(`(?im)^\*\*Research.*$`),
}

const (
	strongOpen = `<strong style="color: #2ecc71; font-weight: 600; background: rgba(46, 204, 113, 0.1); padding: 2px 4px; border-radius: 3px;">`
	itemOpen   = `<div style="margin: 8px 0; padding-left: 20px; position: relative; line-height: 1.6;"><span style="position: absolute; left: 0; color: #2ecc71; font-weight: bold;">`
)

var (
	blankRunRe = regexp.MustCompile(`\n\s*\n\s*\n`)
	ruleRe     = regexp.MustCompile(`(?m)^---.*$`)
	headerRe   = regexp.MustCompile(`(?m)^### (.+)$`)
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	dashItemRe = regexp.MustCompile(`(?m)^- (.+)$`)
	dotItemRe  = regexp.MustCompile(`(?m)^• (.+)$`)
	numberedRe = regexp.MustCompile(`(?m)^(\d+)\. (.+)$`)
	brRunRe    = regexp.MustCompile(`(<br>\s*){3,}`)
)

// StripForbidden removes forbidden meta lines and the blank runs they leave.
func StripForbidden(text string) string {
	for _, re := range forbiddenLines {
		text = re.ReplaceAllString(text, "")
	}
	return blankRunRe.ReplaceAllString(text, "\n\n")
}

// Format converts the markdown subset the assistant writes into HTML.
func Format(text string) string {
	if text == "" {
		return text
	}
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	text = StripForbidden(text)
	text = ruleRe.ReplaceAllString(text, "")
	text = headerRe.ReplaceAllString(text, strongOpen+"${1}</strong>")
	text = boldRe.ReplaceAllString(text, strongOpen+"${1}</strong>")
	text = dashItemRe.ReplaceAllString(text, itemOpen+"•</span>${1}</div>")
	text = dotItemRe.ReplaceAllString(text, itemOpen+"•</span>${1}</div>")
	text = numberedRe.ReplaceAllString(text, itemOpen+"${1}.</span>${2}</div>")
	text = strings.ReplaceAll(text, "\n", "<br>")
	return brRunRe.ReplaceAllString(text, "<br><br>")
}
