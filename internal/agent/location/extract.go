package location

import (
	"regexp"
	"strings"
)

// Place phrases must be capitalised; the prepositions need not be.
var phrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:in|at|from|near)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?(?:,?\s*(?:Bangladesh|India|Pakistan))?)\b`),
	regexp.MustCompile(`(?i:i'?m)\s+(?i:in|at|from|near)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
	regexp.MustCompile(`\b(?i:here)\s+(?i:in)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
}

var cityPattern = regexp.MustCompile(`(?i)\b(dhaka|gazipur|chittagong|sylhet|rajshahi|khulna|barisal|rangpur|mymensingh|comilla|narayanganj|jessore|bogra|dinajpur|pabna|cox's bazar)\b`)

// notPlaces are capitalised words farmers put after "in" that name a time, not a place.
var notPlaces = map[string]bool{
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true, "saturday": true, "sunday": true,
	"rabi": true, "kharif": true, "boro": true, "aman": true, "aus": true, "summer": true, "winter": true, "spring": true,
	"autumn": true, "monsoon": true,
}

// ExtractFromQuery finds a place name in free text, such as "I'm in Dhaka"
// or "weather near Sylhet". It returns "" when there is none.
func ExtractFromQuery(q string) string {
	for _, re := range phrasePatterns {
		for _, m := range re.FindAllStringSubmatch(q, -1) {
			candidate := strings.TrimSpace(m[1])
			first := strings.ToLower(strings.Fields(candidate)[0])
			if notPlaces[first] {
				continue
			}
			return candidate
		}
	}
	if m := cityPattern.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
