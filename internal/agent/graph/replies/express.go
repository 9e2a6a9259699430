package replies

import (
	"regexp"
	"strings"

	"github.com/chashi-bhai/server/internal/core"
)

// Word boundaries keep "which" and "this" from reading as "hi".
var expressGreetingRe = regexp.MustCompile(`\b(hello|hi|hey|good morning|good afternoon|good evening)\b`)

type definition struct{ term, text string }

// Checked in order; the first term contained in the topic wins.
var definitions = []definition{
	{"nitrogen", "**Nitrogen (N)** - Essential nutrient for plant growth, promotes leafy green development. Found in fertilizers, organic matter, and soil."},
	{"phosphorus", "**Phosphorus (P)** - Key nutrient for root development and flowering. Critical for energy transfer in plants."},
	{"potassium", "**Potassium (K)** - Improves disease resistance and water regulation. Essential for fruit quality and plant health."},
	{"ph", "**pH** - Soil acidity/alkalinity measure. 6.0-7.0 is ideal for most crops. Affects nutrient availability."},
	{"compost", "**Compost** - Decomposed organic matter that improves soil fertility, structure, and water retention."},
	{"irrigation", "**Irrigation** - Artificial water application to crops. Methods include drip, sprinkler, and furrow systems."},
	{"pesticide", "**Pesticide** - Chemical or biological agent used to control pests. Should be used as part of integrated pest management."},
	{"fertilizer", "**Fertilizer** - Substance providing nutrients to plants. Can be organic (manure, compost) or synthetic (NPK blends)."},
}

// Express answers greetings, short definitions and generic timing questions.
// ok is false when no rule applies.
func Express(query, location string) (reply string, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))

	if expressGreetingRe.MatchString(q) {
		return "**Hello! I'm Chashi Bhai** 🌱\n\n" +
			"Your expert agricultural assistant for " + location + ".\n\n" +
			"**Quick Help:**\n" +
			"• Ask about **crops**, **soil**, **weather**, or **pests**\n" +
			"• Get **NASA satellite data** insights\n" +
			"• Receive **location-specific** farming advice\n\n" +
			"What can I help you with today?", true
	}

	if strings.HasPrefix(q, "what is") {
		topic := strings.TrimSpace(strings.ReplaceAll(q, "what is", ""))
		for _, d := range definitions {
			if strings.Contains(topic, d.term) {
				return d.text + "\n\n**Location:** " + location +
					"\n**Need more specific advice?** Ask about your particular situation!", true
			}
		}
	}

	if core.ContainsAny(q, "when to", "when should", "what time") {
		switch {
		case core.ContainsAny(q, "plant", "sow"):
			return strings.ReplaceAll(plantingTiming, "{loc}", location), true
		case strings.Contains(q, "harvest"):
			return harvestTiming, true
		}
	}
	return "", false
}

const plantingTiming = `**Planting Timing for {loc}**

**General Guidelines:**
• **Spring crops**: After last frost date
• **Summer crops**: Warm soil (60°F+)  
• **Fall crops**: 10-12 weeks before first frost
• **Winter crops**: Late summer/early fall

**Local Factors:**
• Check your specific hardiness zone
• Monitor soil temperature
• Consider microclimates

**Need specific crop timing?** Ask about a particular plant!`

const harvestTiming = `**Harvest Timing Basics**

**Key Indicators:**
• **Visual**: Color, size, texture changes
• **Physical**: Firmness, weight, ease of separation
• **Timing**: Days to maturity from seed packet
• **Weather**: Harvest before damaging conditions

**General Tips:**
• Morning harvest often best
• Handle gently to avoid damage
• Process quickly for best quality

**For specific crops**, ask about harvest signs for that plant!`
