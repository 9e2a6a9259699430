package forecast

import (
	"fmt"
	"strings"
)

func firstDays(ds []Day) []Day {
	if len(ds) > summaryDays {
		return ds[:summaryDays]
	}
	return ds
}

// Summary renders the forecast as per-day lines and agronomic recommendations.
func (f *Forecast) Summary() string {
	if f == nil {
		return "**Short-Term Weather Forecast**: Data processing unavailable."
	}
	if f.Source == SourceWeatherUnderground {
		return f.wuSummary()
	}
	return f.openMeteoSummary()
}

func (f *Forecast) openMeteoSummary() string {
	days := firstDays(f.Days)
	lines := []string{"**🌤️ Agricultural Weather Forecast (Open-Meteo)**", ""}
	for _, d := range days {
		parts := []string{fmt.Sprintf("📅 **%s**:", d.Date)}
		if d.TempMax != nil && d.TempMin != nil {
			parts = append(parts, fmt.Sprintf("🌡️ %.1f°C - %.1f°C", *d.TempMin, *d.TempMax))
		}
		if d.Rain != nil {
			rain := fmt.Sprintf("🌧️ %.1fmm", *d.Rain)
			if d.RainProb != nil {
				rain += fmt.Sprintf(" (%.0f%% chance)", *d.RainProb)
			}
			parts = append(parts, rain)
		}
		if d.Wind != nil {
			parts = append(parts, fmt.Sprintf("💨 %.1f km/h", *d.Wind))
		}
		if d.HumidityMax != nil && d.HumidityMin != nil {
			parts = append(parts, fmt.Sprintf("💧 %.0f-%.0f%% RH", *d.HumidityMin, *d.HumidityMax))
		}
		if d.SoilMoisture != nil {
			parts = append(parts, fmt.Sprintf("🌱 Soil: %.2f m³/m³", *d.SoilMoisture))
		}
		if d.ET0 != nil {
			parts = append(parts, fmt.Sprintf("💦 ET₀: %.1fmm", *d.ET0))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}

	lines = append(lines, "", "🌾 **Agricultural Recommendations:**")

	rain, hasRain := total(days, func(d Day) *float64 { return d.Rain })
	if hasRain {
		switch {
		case rain < 5:
			lines = append(lines, "• ⚠️ Very low rainfall expected - plan irrigation schedule")
			if et0, ok := total(days, func(d Day) *float64 { return d.ET0 }); ok && et0 > rain {
				lines = append(lines, "• Water demand exceeds rainfall - irrigation critical")
			}
		case rain > 50:
			lines = append(lines,
				"• ⚠️ Heavy rainfall expected - ensure proper drainage",
				"• Monitor for waterlogging and fungal disease risk",
				"• Delay fertilizer application if possible")
		case rain > 30:
			lines = append(lines,
				"• Moderate rainfall - monitor soil moisture levels",
				"• Good conditions for nutrient uptake")
		}
	}

	switch {
	case anyDay(days, func(d Day) *float64 { return d.TempMax }, func(v float64) bool { return v > 35 }):
		lines = append(lines,
			"• 🌡️ High heat stress predicted - protect sensitive crops",
			"• Consider shade nets, mulching, or increased irrigation frequency")
	case anyDay(days, func(d Day) *float64 { return d.TempMax }, func(v float64) bool { return v < 10 }):
		lines = append(lines,
			"• ❄️ Cool temperatures - protect frost-sensitive crops",
			"• Delay planting of warm-season crops")
	}

	if anyDay(days, func(d Day) *float64 { return d.HumidityMax }, func(v float64) bool { return v > 85 }) {
		lines = append(lines,
			"• 💧 High humidity - increased disease pressure",
			"• Monitor for fungal infections, ensure good air circulation")
	}
	if anyDay(days, func(d Day) *float64 { return d.Wind }, func(v float64) bool { return v > 30 }) {
		lines = append(lines, "• 💨 Strong winds expected - secure young plants and structures")
	}
	return strings.Join(lines, "\n")
}

func (f *Forecast) wuSummary() string {
	days := firstDays(f.Days)
	if len(days) == 0 {
		return "**Weather Forecast**: No data available."
	}
	lines := []string{"**🌤️ Agricultural Weather Forecast (Weather Underground)**", ""}
	for _, d := range days {
		parts := []string{fmt.Sprintf("📅 **%s**:", d.Date)}
		if d.TempMax != nil && d.TempMin != nil {
			parts = append(parts, fmt.Sprintf("🌡️ %.1f°C - %.1f°C", *d.TempMin, *d.TempMax))
		}
		if v := deref(d.Rain); v > 0 {
			parts = append(parts, fmt.Sprintf("🌧️ %.1fmm (%.0f%% chance)", v, deref(d.RainProb)))
		}
		if v := deref(d.Wind); v > 0 {
			parts = append(parts, fmt.Sprintf("💨 %.1f km/h", v))
		}
		if v := deref(d.HumidityMax); v > 0 {
			parts = append(parts, fmt.Sprintf("💧 %.0f%% RH", v))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}

	lines = append(lines, "", "🌾 **Agricultural Recommendations:**")

	rain, _ := total(days, func(d Day) *float64 { return d.Rain })
	switch {
	case rain < 5:
		lines = append(lines, "• ⚠️ Very low rainfall expected - plan irrigation schedule")
	case rain > 50:
		lines = append(lines,
			"• ⚠️ Heavy rainfall expected - ensure proper drainage",
			"• Monitor for waterlogging and fungal disease risk")
	}
	if anyDay(days, func(d Day) *float64 { return d.TempMax }, func(v float64) bool { return v > 35 }) {
		lines = append(lines, "• 🌡️ High heat stress predicted - protect sensitive crops")
	}
	humidity, _ := total(days, func(d Day) *float64 { return d.HumidityMax })
	if humidity/float64(len(days)) > 85 {
		lines = append(lines, "• 💧 High humidity - increased disease pressure")
	}
	return strings.Join(lines, "\n")
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// total sums a field over days, reporting whether any day carried it.
func total(days []Day, field func(Day) *float64) (float64, bool) {
	var t float64
	seen := false
	for _, d := range days {
		if v := field(d); v != nil {
			t += *v
			seen = true
		}
	}
	return t, seen
}

func anyDay(days []Day, field func(Day) *float64, pred func(float64) bool) bool {
	for _, d := range days {
		if v := field(d); v != nil && pred(*v) {
			return true
		}
	}
	return false
}
