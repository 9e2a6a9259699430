package replies

import (
	"fmt"
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

type shortcut struct {
	keywords []string
	template string
}

// First matching cluster wins.
var shortcuts = []shortcut{
	{[]string{"weather", "temperature", "rain", "rainfall", "climate"}, weatherShortcut},
	{[]string{"soil", "fertility", "nutrients"}, soilShortcut},
	{[]string{"irrigation", "water", "watering", "drought"}, irrigationShortcut},
	{[]string{"pest", "disease", "insect", "bug", "fungus", "virus"}, pestShortcut},
}

// Shortcut returns the topic template for weather, soil, irrigation and pest
// questions. ok is false when the query matches none of them.
func Shortcut(query string, loc model.Location) (reply string, ok bool) {
	q := strings.ToLower(query)
	for _, s := range shortcuts {
		if !core.ContainsAny(q, s.keywords...) {
			continue
		}
		name := loc.PromptName()
		point := name
		if loc.HasCoordinates() {
			lat, lon := loc.Coords()
			point = fmt.Sprintf("%s (Lat: %.2f, Lon: %.2f)", name, lat, lon)
		}
		return strings.NewReplacer("{loc}", name, "{point}", point).Replace(s.template), true
	}
	return "", false
}

const weatherShortcut = `**Weather & Climate Information for {loc}**

🌤️ **Current Agricultural Weather Context:**
• Location: {point}
• For detailed weather forecasts, check local meteorological services
• NASA POWER data integration provides historical climate patterns

**General Agricultural Weather Guidelines:**
• **Temperature**: Monitor daily min/max for crop stress indicators
• **Rainfall**: Track cumulative precipitation for irrigation planning  
• **Humidity**: High humidity increases disease pressure
• **Wind**: Strong winds can damage crops and increase water loss

**Seasonal Considerations:**
• Plan planting dates based on historical temperature patterns
• Adjust irrigation based on rainfall forecasts
• Monitor heat stress during peak summer temperatures

For specific weather-based farming advice, please ask about a particular crop or farming activity.`

const soilShortcut = `**Soil Health & Management for {loc}**

🌱 **Soil Health Fundamentals:**

**Key Soil Properties:**
• **pH Level**: 6.0-7.0 ideal for most crops
• **Organic Matter**: 3-5% optimal for fertility
• **Drainage**: Proper drainage prevents waterlogging
• **Nutrient Balance**: N-P-K plus micronutrients

**Soil Testing & Analysis:**
• Test soil pH annually
• Check nutrient levels before planting season
• Monitor organic matter content
• Assess soil structure and compaction

**Improvement Strategies:**
• **Organic Matter**: Add compost, manure, cover crops
• **pH Adjustment**: Lime for acidic soils, sulfur for alkaline
• **Nutrient Management**: Balanced fertilization program
• **Erosion Control**: Contour farming, terracing, cover crops

For location-specific soil recommendations, please ask about your specific crop or soil challenge.`

const irrigationShortcut = `**Irrigation & Water Management for {loc}**

💧 **Smart Irrigation Principles:**

**Water Requirements by Growth Stage:**
• **Seedling**: Light, frequent watering
• **Vegetative**: Moderate, consistent moisture
• **Flowering/Fruiting**: Increased water needs
• **Maturity**: Reduced watering

**Irrigation Methods:**
• **Drip Irrigation**: Most efficient, 90-95% efficiency
• **Sprinkler**: Good for field crops, 80-85% efficiency
• **Furrow**: Traditional method, 60-70% efficiency

**Water Management Tips:**
• **Timing**: Early morning irrigation reduces evaporation
• **Monitoring**: Check soil moisture at root depth
• **Mulching**: Reduces water loss by 25-50%
• **Scheduling**: Based on crop needs and weather forecast

**Drought Management:**
• Select drought-resistant varieties
• Improve soil organic matter for water retention
• Use conservation tillage practices
• Install efficient irrigation systems

What specific crop or irrigation challenge can I help you with?`

const pestShortcut = `**Integrated Pest & Disease Management**

🐛 **IPM Strategy Framework:**

**Prevention (Best Defense):**
• **Crop Rotation**: Break pest life cycles
• **Resistant Varieties**: Choose disease-resistant cultivars
• **Soil Health**: Healthy soil = stronger plants
• **Sanitation**: Remove crop residues and weeds

**Monitoring & Identification:**
• **Regular Scouting**: Weekly field inspections
• **Economic Thresholds**: Treat when damage justifies cost
• **Proper ID**: Identify specific pests/diseases correctly
• **Weather Monitoring**: Disease pressure varies with conditions

**Control Methods (In Order of Preference):**
1. **Cultural**: Timing, spacing, water management
2. **Biological**: Beneficial insects, natural predators
3. **Mechanical**: Traps, barriers, hand removal
4. **Chemical**: As last resort, following label instructions

**Common Agricultural Pests:**
• **Aphids**: Monitor for viral disease transmission
• **Caterpillars**: Check leaf damage patterns
• **Fungal Diseases**: Increase with high humidity
• **Bacterial Issues**: Often spread by water/insects

For specific pest identification and treatment, please describe the symptoms you're seeing.`
