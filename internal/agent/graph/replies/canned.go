// Package replies holds every answer the assistant gives without asking the
// language model, plus the data-source attribution line.
package replies

import (
	"regexp"
	"strings"

	"github.com/chashi-bhai/server/internal/core"
)

var capabilityTriggers = []string{
	"which nasa dataset", "what nasa dataset", "which datasets do you use",
	"nasa data will you use", "what nasa data", "explain nasa dataset", "nasa sources",
}

// IsCapabilityQuestion reports a meta question about which datasets are used.
func IsCapabilityQuestion(q string) bool {
	return core.ContainsAny(strings.ToLower(q), capabilityTriggers...)
}

var greetingRe = regexp.MustCompile(`\b(hi|hello|hey|greetings)\b`)

// IsGreeting matches a greeting word anywhere in the query.
func IsGreeting(q string) bool {
	return greetingRe.MatchString(strings.ToLower(q))
}

// IsTest matches the self-test request.
func IsTest(q string) bool {
	return strings.Contains(strings.ToLower(q), "test")
}

// CapabilityText explains the datasets and how they are selected.
func CapabilityText() string {
	return strings.Join([]string{
		"**Chashi Bhai** - NASA Dataset Capability Overview",
		"",
		"**Integrated Datasets:**",
		"• **POWER**: Climate & weather (temperature, rainfall, humidity, solar radiation)",
		"• **MODIS**: Vegetation vigor (NDVI, EVI, leaf area index)",
		"• **LANDSAT**: Field-scale crop condition & water stress indicators",
		"• **GLDAS**: Soil moisture, evapotranspiration, hydrologic balance",
		"• **GRACE**: Groundwater and total water storage trends",
		"",
		"**How Selection Works:**",
		"• I parse your question for domain keywords (e.g., 'soil moisture', 'irrigation', 'crop health').",
		"• Each keyword maps to one or more datasets (internal relevance table).",
		"• If no specific keyword but the question is agricultural, I may use all datasets for a comprehensive analysis.",
		"",
		"**Examples:**",
		"• 'Soil moisture status?' → GLDAS (+ POWER for recent rain)",
		"• 'Should I irrigate?' → GLDAS + POWER (+ GRACE if long-term water context inferred)",
		"• 'Crop health this week?' → MODIS + LANDSAT (+ POWER for weather stress context)",
		"• 'Groundwater situation?' → GRACE (+ GLDAS if soil layer context needed)",
		"",
		"**Attribution Policy:** A single final line lists only the NASA datasets actually used in the answer.",
		"**Location Personalization:** Your approximate location (IP-based) refines climate, soil moisture, and groundwater context.",
		"",
		"Ask a specific farming question now and I'll automatically select the optimal datasets.",
	}, "\n")
}

const greetingText = `**Chashi Bhai** - Your Expert Agriculture Assistant

Hello! I'm Chashi Bhai, your expert AI assistant for all things farming and agriculture.

**How can I assist you today?**

• Ask about crop management
• Get advice on soil health
• Learn about pest control
• Explore irrigation techniques
• Discover organic farming methods
• Get location-based weather insights using NASA data

Feel free to ask me anything related to farming!`

// GreetingText is the reply to a bare greeting.
func GreetingText() string { return greetingText }

const testText = `**Chashi Bhai** - Test Response

This is a test of the **Chashi Bhai** agricultural assistant system.

**Key Features:**
• Expert agricultural knowledge with **NASA data integration**
• Location-based personalized recommendations
• Real-time climate and weather insights

**Agricultural Focus Areas:**
1. Crop management and planning
2. Soil health and fertility
3. Weather and climate analysis

This system combines **NASA datasets** with agricultural expertise for maximum accuracy.`

// TestText is the reply to the self-test request.
func TestText() string { return testText }
