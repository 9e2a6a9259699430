package knowledge

import (
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

// Classify buckets a query by keyword. Matching is plain substring on the
// lowercased query, so "hi" also fires inside "this"; prompts tolerate that.
func Classify(query string) model.QuestionAnalysis {
	q := strings.ToLower(query)

	complexity := model.ComplexityIntermediate
	switch {
	case core.ContainsAny(q, "what is", "define", "hello", "hi", "when to", "how much"):
		complexity = model.ComplexityBasic
	case core.ContainsAny(q, "optimize", "analysis", "precision", "research", "scientific", "study"):
		complexity = model.ComplexityAdvanced
	}

	primary := model.QuestionGeneral
	switch {
	case core.ContainsAny(q, "weather", "rain", "climate", "temperature"):
		primary = model.QuestionWeatherClimate
	case core.ContainsAny(q, "soil", "fertility", "ph", "nutrient", "fertilizer"):
		primary = model.QuestionSoilHealth
	case core.ContainsAny(q, "water", "irrigation", "watering"):
		primary = model.QuestionIrrigationWater
	case core.ContainsAny(q, "pest", "disease", "insect", "bug"):
		primary = model.QuestionDiseaseDiagnosis
	case core.ContainsAny(q, "crop", "plant", "grow", "harvest", "seed"):
		primary = model.QuestionCropManagement
	}

	needsLive := false
	switch primary {
	case model.QuestionCropManagement, model.QuestionWeatherClimate, model.QuestionIrrigationWater, model.QuestionSoilHealth:
		needsLive = true
	}

	return model.QuestionAnalysis{
		PrimaryType:   primary,
		Complexity:    complexity,
		NeedsLiveData: needsLive,
		NeedsSearch:   complexity == model.ComplexityAdvanced,
	}
}

// RelevantDatasets names the datasets most likely to help with the query.
// The aggregator fetches every dataset anyway; this feeds capability text and
// the relevance hint in logs.
func RelevantDatasets(query string) []model.Dataset {
	q := strings.ToLower(query)
	switch {
	case core.ContainsAny(q, "weather", "temperature", "rain", "climate"):
		return []model.Dataset{model.DatasetPOWER}
	case core.ContainsAny(q, "soil", "moisture", "irrigation", "water"):
		return []model.Dataset{model.DatasetGLDAS, model.DatasetPOWER}
	case core.ContainsAny(q, "crop", "vegetation", "plant", "growth"):
		return []model.Dataset{model.DatasetMODIS, model.DatasetPOWER}
	case core.ContainsAny(q, "field", "precision", "mapping"):
		return []model.Dataset{model.DatasetLANDSAT, model.DatasetMODIS}
	case core.ContainsAny(q, "drought", "groundwater"):
		return []model.Dataset{model.DatasetGRACE, model.DatasetGLDAS}
	case core.ContainsAny(q, "farm", "agriculture", "farming", "grow"):
		return []model.Dataset{model.DatasetPOWER, model.DatasetMODIS}
	}
	return nil
}

// SearchQueries expands advanced questions into research-flavoured searches.
func SearchQueries(query string, analysis model.QuestionAnalysis) []string {
	if analysis.Complexity == model.ComplexityAdvanced {
		return []string{"agricultural research " + query, "farming science " + query}
	}
	return []string{query}
}

// InferDomain maps a classification onto the few-shot example domains.
func InferDomain(query string, analysis model.QuestionAnalysis) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "potato"):
		return "potato_cultivation"
	case strings.Contains(q, "rice"), strings.Contains(q, "boro"), strings.Contains(q, "paddy"):
		return "rice_cultivation"
	}
	switch analysis.PrimaryType {
	case model.QuestionDiseaseDiagnosis:
		return "pest_management"
	case model.QuestionIrrigationWater:
		return "irrigation"
	}
	return ""
}
