package datasets

import (
	"fmt"
	"math"
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
)

// insightSet collects the three sections of a dataset analysis.
type insightSet struct {
	insights        []string
	alerts          []string
	recommendations []string
}

func (s *insightSet) insight(format string, a ...any) {
	s.insights = append(s.insights, fmt.Sprintf(format, a...))
}

func (s *insightSet) alert(msg string)     { s.alerts = append(s.alerts, msg) }
func (s *insightSet) recommend(msg string) { s.recommendations = append(s.recommendations, msg) }

func (r *Result) value(k string) float64 { return r.Values[k] }

func (r *Result) label(k string) string {
	if v, ok := r.Labels[k]; ok {
		return v
	}
	return "unknown"
}

// noInsightsText is what Analyze returns when no reading produced a finding.
const noInsightsText = "Unable to analyze NASA data for agricultural insights."

// Analyze turns fetched readings into agronomic insights, alerts and
// recommendations. Unsuccessful results are skipped.
func Analyze(results []*Result, analysis model.QuestionAnalysis) string {
	if text, ok := analyze(results, analysis); ok {
		return text
	}
	return noInsightsText
}

// analyze reports false when the readings yielded nothing to say.
func analyze(results []*Result, _ model.QuestionAnalysis) (string, bool) {
	var s insightSet
	used := 0
	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		used++
		switch r.Dataset {
		case model.DatasetPOWER:
			analyzePower(&s, r)
		case model.DatasetMODIS:
			analyzeModis(&s, r)
		case model.DatasetLANDSAT:
			analyzeLandsat(&s, r)
		case model.DatasetGLDAS:
			analyzeGldas(&s, r)
		case model.DatasetGRACE:
			analyzeGrace(&s, r)
		}
	}

	var sections []string
	if len(s.insights) > 0 {
		sections = append(sections, "**NASA SATELLITE DATA ANALYSIS:**")
		sections = append(sections, s.insights...)
	}
	if len(s.alerts) > 0 {
		sections = append(sections, "\n**⚠ AGRICULTURAL ALERTS:**")
		sections = append(sections, s.alerts...)
	}
	if len(s.recommendations) > 0 {
		sections = append(sections, "\n**🎯 ACTIONABLE RECOMMENDATIONS:**")
		sections = append(sections, s.recommendations...)
	}
	if used > 1 {
		sections = append(sections, fmt.Sprintf("\n**📊 DATA INTEGRATION**: Analysis combines %d NASA datasets for comprehensive assessment", used))
	}
	if len(sections) == 0 {
		return "", false
	}
	return strings.Join(sections, "\n"), true
}

func analyzePower(s *insightSet, r *Result) {
	if temps := r.Series["T2M"]; len(temps) > 0 {
		avg := mean(temps)
		lo, hi := minMax(temps)
		s.insight("**Climate Analysis (POWER)**: Avg %.1f°C (Range: %.1f-%.1f°C)", avg, lo, hi)
		switch {
		case avg < 5:
			s.alert("**Frost Risk**: Implement frost protection measures immediately")
			s.recommend("• Use row covers, wind machines, or heaters for sensitive crops")
		case avg > 35:
			s.alert("**Heat Stress Alert**: Critical temperature threshold exceeded")
			s.recommend("• Increase irrigation frequency, provide shade, adjust planting schedules")
		case hi-lo > 20:
			s.insight("• **High Temperature Variability**: Monitor crop stress indicators")
		}
	}

	if precip := r.Series["PRECTOTCORR"]; len(precip) > 0 {
		total := sum(precip)
		dry := 0
		for _, p := range precip {
			if p < 0.1 {
				dry++
			}
		}
		s.insight("**Precipitation Analysis**: %.1fmm total, %.1fmm/day average", total, total/float64(len(precip)))
		s.insight("• **Dry Days**: %d out of %d days", dry, len(precip))
		switch {
		case total < 25:
			s.alert("**Drought Conditions**: Severe water deficit detected")
			s.recommend("• Implement water conservation, check irrigation systems, consider drought-resistant varieties")
		case total > 200:
			s.alert("**Excess Rainfall**: Risk of waterlogging and fungal diseases")
			s.recommend("• Ensure proper drainage, monitor for fungal diseases, delay fertilizer application")
		}
	}

	if rh := r.Series["RH2M"]; len(rh) > 0 {
		avg := mean(rh)
		s.insight("• **Humidity**: %.0f%% average", avg)
		switch {
		case avg > 85:
			s.recommend("• High humidity increases disease risk - enhance air circulation")
		case avg < 40:
			s.recommend("• Low humidity may cause water stress - monitor soil moisture")
		}
	}
}

func analyzeModis(s *insightSet, r *Result) {
	ndvi, evi, lai, gpp := r.value("ndvi"), r.value("evi"), r.value("lai"), r.value("gpp")
	s.insight("**Vegetation Health (MODIS)**: NDVI %.3f, EVI %.3f, LAI %.1f", ndvi, evi, lai)

	switch {
	case ndvi > 0.8:
		s.insight("• **Optimal Vegetation**: Peak health and photosynthetic activity")
		s.recommend("• Maintain current management practices, prepare for harvest planning")
	case ndvi > 0.7:
		s.insight("• **Excellent Vegetation**: Strong crop vigor and canopy development")
	case ndvi > 0.5:
		s.insight("• **Good Vegetation**: Healthy crop growth with room for improvement")
		s.recommend("• Consider nutrient supplementation or pest monitoring")
	case ndvi > 0.3:
		s.insight("• **Moderate Vegetation**: Crop stress indicators present")
		s.alert("**Vegetation Stress**: Investigate water, nutrient, or pest issues")
	default:
		s.alert("**Critical Vegetation Health**: Immediate intervention required")
		s.recommend("• Conduct field inspection, soil test, and pest assessment")
	}

	switch {
	case lai > 4:
		s.insight("• **Dense Canopy**: High leaf area index indicates strong growth")
	case lai < 1.5:
		s.insight("• **Sparse Canopy**: Low leaf area may indicate stress or early growth stage")
	}

	switch {
	case gpp > 12:
		s.insight("• **High Productivity**: Strong photosynthetic activity detected")
	case gpp < 6:
		s.insight("• **Low Productivity**: Reduced photosynthetic efficiency")
	}
}

func analyzeLandsat(s *insightSet, r *Result) {
	health, confidence := r.value("crop_health_index"), r.value("crop_type_confidence")
	s.insight("**Precision Crop Analysis (Landsat)**: Health index %.3f, Confidence %.2f", health, confidence)

	switch {
	case health > 0.9:
		s.insight("• **Exceptional Crop Health**: Peak field performance achieved")
		s.recommend("• Document successful practices for replication")
	case health > 0.8:
		s.insight("• **Optimal Crop Health**: Excellent management practices evident")
	case health > 0.6:
		s.insight("• **Good Crop Health**: Minor optimization opportunities exist")
		s.recommend("• Fine-tune nutrient or water management for improvement")
	case health > 0.4:
		s.insight("• **Moderate Crop Stress**: Management intervention needed")
		s.alert("**Crop Stress Alert**: Investigate nutrient, water, or pest factors")
	default:
		s.alert("**Critical Crop Health**: Immediate field assessment required")
		s.recommend("• Conduct comprehensive field diagnosis within 48 hours")
	}

	switch r.label("water_stress") {
	case "severe":
		s.alert("**Severe Water Stress**: Critical irrigation needed")
		s.recommend("• Implement emergency irrigation, check system efficiency")
	case "moderate":
		s.insight("• **Moderate Water Stress**: Adjust irrigation scheduling")
		s.recommend("• Increase irrigation frequency by 25-30%")
	case "low":
		s.insight("• **Optimal Water Status**: Current irrigation management effective")
	}

	switch r.label("irrigation_status") {
	case "optimal":
		s.insight("• **Irrigation System**: Operating at peak efficiency")
	case "adequate":
		s.insight("• **Irrigation System**: Performing well with minor optimization potential")
	default:
		s.recommend("• Review irrigation system performance and coverage patterns")
	}
}

func analyzeGldas(s *insightSet, r *Result) {
	sm, root := r.value("soil_moisture"), r.value("root_zone_moisture")
	et, runoff := r.value("evapotranspiration"), r.value("runoff")
	s.insight("**Hydrological Analysis (GLDAS)**: Soil moisture %.3f m³/m³, Root zone %.3f m³/m³", sm, root)

	switch {
	case sm < 0.15:
		s.alert("**Severe Drought**: Critical soil moisture deficit")
		s.recommend("• Implement emergency irrigation, consider drought-resistant varieties")
	case sm < 0.25:
		s.alert("**Drought Stress**: Below optimal soil moisture levels")
		s.recommend("• Increase irrigation intensity, apply mulching")
	case sm > 0.55:
		s.alert("**Waterlogged Conditions**: Excess soil moisture detected")
		s.recommend("• Improve drainage, delay fertilizer application, monitor for root diseases")
	case sm > 0.45:
		s.insight("• **High Soil Moisture**: Monitor drainage and disease risk")
	default:
		s.insight("• **Optimal Soil Moisture**: Ideal conditions for crop growth")
	}

	s.insight("• **Water Demand**: %.1f mm/day evapotranspiration", et)
	switch {
	case et > 6:
		s.recommend("• High water demand - ensure adequate irrigation capacity")
	case et < 2:
		s.insight("• Low water demand period - reduce irrigation frequency")
	}

	if root < sm*0.7 {
		s.recommend("• Root zone moisture deficit - deep irrigation recommended")
	}
	if runoff > 2 {
		s.insight("• **High Runoff**: Water loss and potential erosion risk")
		s.recommend("• Consider contour farming, cover crops, or terracing")
	}
}

func analyzeGrace(s *insightSet, r *Result) {
	gw, total := r.value("groundwater_storage"), r.value("total_water_storage")
	s.insight("**Groundwater Analysis (GRACE)**: Storage change %.1f cm, Total water %.1f cm", gw, total)

	switch r.label("water_trend") {
	case "declining":
		if math.Abs(gw) > 3 {
			s.alert("**Critical Groundwater Depletion**: Severe water table decline")
			s.recommend("• Implement water conservation, explore alternative sources")
		} else {
			s.insight("• **Groundwater Decline**: Monitor water usage efficiency")
		}
	case "increasing":
		s.insight("• **Groundwater Recovery**: Positive recharge trend")
	default:
		s.insight("• **Stable Groundwater**: Sustainable water table levels")
	}

	switch r.label("drought_indicator") {
	case "severe":
		s.alert("**Severe Drought**: Multi-faceted water stress")
		s.recommend("• Activate drought management plan, prioritize high-value crops")
	case "moderate":
		s.insight("• **Drought Watch**: Elevated water stress conditions")
		s.recommend("• Implement water-saving practices, monitor crop stress")
	}

	if r.label("seasonal_variation") == "high" {
		s.recommend("• Plan irrigation storage for dry season water security")
	}
}
