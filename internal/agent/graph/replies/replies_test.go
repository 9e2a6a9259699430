package replies

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/model"
)

func TestIntercepts(t *testing.T) {
	assert.True(t, IsCapabilityQuestion("Which NASA datasets do you use here?"))
	assert.True(t, IsCapabilityQuestion("what nasa data is behind this"))
	assert.False(t, IsCapabilityQuestion("how much rain did NASA record"))

	assert.True(t, IsGreeting("Hello"))
	assert.True(t, IsGreeting("hey there"))
	assert.False(t, IsGreeting("which crop suits clay soil"))

	assert.True(t, IsTest("this is a TEST"))
	assert.False(t, IsTest("soil health"))
}

func TestCannedTexts(t *testing.T) {
	assert.True(t, strings.HasPrefix(CapabilityText(), "**Chashi Bhai** - NASA Dataset Capability Overview\n\n**Integrated Datasets:**"))
	assert.Contains(t, CapabilityText(), "• **GRACE**: Groundwater and total water storage trends")
	assert.True(t, strings.HasPrefix(GreetingText(), "**Chashi Bhai** - Your Expert Agriculture Assistant"))
	assert.True(t, strings.HasSuffix(TestText(), "agricultural expertise for maximum accuracy."))
}

func TestForecastText(t *testing.T) {
	power := &datasets.Result{
		Dataset: model.DatasetPOWER,
		Success: true,
		Series: map[string][]float64{
			"T2M":         {30, 32},
			"PRECTOTCORR": {1.5, 2.5},
		},
	}

	text, used := ForecastText("**5-Day Forecast**\n• Day 1: 31°C", power, 7)
	assert.Equal(t, []model.Dataset{model.DatasetPOWER}, used)
	assert.True(t, strings.HasPrefix(text, "**Chashi Bhai** - Weather & Farming Outlook\n**5-Day Forecast**"))
	assert.Contains(t, text, "**Recent Climate (NASA POWER 7-day)**\n• Avg Temp (7d): 31.0°C\n• Total Rain (7d): 4.0mm")
	assert.Contains(t, text, "**Agronomic Guidance**\n• Use mulching")
	assert.True(t, strings.HasSuffix(text, "\n\n**NASA dataset(s) used:** POWER"))

	text, used = ForecastText("", &datasets.Result{Success: false}, 7)
	assert.Empty(t, used)
	assert.NotContains(t, text, "NASA POWER")
	assert.NotContains(t, text, "dataset(s) used")
}

func TestExpress(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		prefix string
		ok     bool
	}{
		{"greeting", "Good morning!", "**Hello! I'm Chashi Bhai** 🌱\n\nYour expert agricultural assistant for Dhaka.", true},
		{"definition", "What is nitrogen?", "**Nitrogen (N)** - Essential nutrient", true},
		{"ph definition", "what is ph", "**pH** - Soil acidity", true},
		{"planting", "When to plant tomatoes", "**Planting Timing for Dhaka**", true},
		{"harvest", "when should I harvest potatoes", "**Harvest Timing Basics**", true},
		{"unknown definition", "what is a tractor", "", false},
		{"which is not hi", "which crop fits sandy soil", "", false},
		{"timing without topic", "when to call the extension office", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := Express(tt.query, "Dhaka")
			assert.Equal(t, tt.ok, ok)
			assert.True(t, strings.HasPrefix(reply, tt.prefix), reply)
		})
	}

	reply, _ := Express("What is compost", "Rajshahi")
	assert.True(t, strings.HasSuffix(reply, "\n\n**Location:** Rajshahi\n**Need more specific advice?** Ask about your particular situation!"))
}

func TestShortcut(t *testing.T) {
	dhaka := model.NewLocation(23.8103, 90.4125, "Dhaka", "manual")

	reply, ok := Shortcut("Will it rain this week?", dhaka)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(reply, "**Weather & Climate Information for Dhaka**"))
	assert.Contains(t, reply, "• Location: Dhaka (Lat: 23.81, Lon: 90.41)")

	reply, ok = Shortcut("soil fertility tips", model.UnresolvedLocation("Khulna"))
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(reply, "**Soil Health & Management for Khulna**"))

	reply, ok = Shortcut("drought plan", model.Location{})
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(reply, "**Irrigation & Water Management for your region**"))

	reply, ok = Shortcut("fungus on leaves", dhaka)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(reply, "**Integrated Pest & Disease Management**"))

	_, ok = Shortcut("best mango variety", dhaka)
	assert.False(t, ok)
}

func TestShortcut_NoCoordinates(t *testing.T) {
	reply, ok := Shortcut("climate outlook", model.UnresolvedLocation("Bogura"))
	assert.True(t, ok)
	assert.Contains(t, reply, "• Location: Bogura\n")
	assert.NotContains(t, reply, "Lat:")
}

func TestAttribute(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		live   model.LiveData
		want   string
	}{
		{
			name:   "nothing detected",
			answer: "Rotate crops every season.",
			want:   "**Data Sources:** Integrated Agricultural Knowledge Base",
		},
		{
			name:   "datasets used",
			answer: "Soil is moist.",
			live:   model.LiveData{DatasetsUsed: []model.Dataset{model.DatasetPOWER, model.DatasetGLDAS}},
			want:   "**Data Sources:** NASA Satellite (POWER, GLDAS)",
		},
		{
			name:   "mentions only",
			answer: "NASA records and FAO guidance agree.",
			want:   "**Data Sources:** NASA Agricultural Data, FAO (Food and Agriculture Organization)",
		},
		{
			name:   "layers present",
			answer: "Use BRRI dhan29 and follow DAE advisories.",
			live:   model.LiveData{FAO: "fao", LocalResearch: "bd"},
			want:   "**Data Sources:** FAO Standards, Bangladesh Agricultural Research (BRRI, DAE)",
		},
		{
			name:   "local layer without institutes",
			answer: "Plant early.",
			live:   model.LiveData{LocalResearch: "bd"},
			want:   "**Data Sources:** Bangladesh Agricultural Research Institute",
		},
		{
			name:   "institute mention without layer",
			answer: "BARI Alu 7 performs well with drip irrigation.",
			want:   "**Data Sources:** Bangladesh Agricultural Research (BARI), Modern Agriculture Methods",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Attribute(tt.answer, tt.live)
			assert.Equal(t, tt.answer+"\n\n"+tt.want, got)
		})
	}
}
