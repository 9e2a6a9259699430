package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dataset names one satellite or climate source.
type Dataset int

const (
	DatasetPOWER Dataset = iota + 1
	DatasetMODIS
	DatasetLANDSAT
	DatasetGLDAS
	DatasetGRACE
)

// AllDatasets is the order datasets are requested and reported in.
var AllDatasets = []Dataset{DatasetPOWER, DatasetMODIS, DatasetGLDAS, DatasetGRACE, DatasetLANDSAT}

func (d Dataset) String() string {
	switch d {
	case DatasetPOWER:
		return "POWER"
	case DatasetMODIS:
		return "MODIS"
	case DatasetLANDSAT:
		return "LANDSAT"
	case DatasetGLDAS:
		return "GLDAS"
	case DatasetGRACE:
		return "GRACE"
	default:
		return fmt.Sprintf("Dataset(%d)", int(d))
	}
}

// Description is the long product name used in capability texts.
func (d Dataset) Description() string {
	switch d {
	case DatasetPOWER:
		return "NASA POWER - Agroclimatology and Sustainable Building"
	case DatasetMODIS:
		return "MODIS - Moderate Resolution Imaging Spectroradiometer"
	case DatasetLANDSAT:
		return "Landsat - Land Remote Sensing Satellite Program"
	case DatasetGLDAS:
		return "GLDAS - Global Land Data Assimilation System"
	case DatasetGRACE:
		return "GRACE - Gravity Recovery and Climate Experiment"
	default:
		return d.String()
	}
}

// ParseDataset accepts a dataset name in any case.
func ParseDataset(s string) (Dataset, error) {
	for _, d := range AllDatasets {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dataset %q", s)
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDataset(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// DatasetNames renders datasets as their string names.
func DatasetNames(ds []Dataset) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return out
}

// Complexity selects the prompt shape.
type Complexity int

const (
	ComplexityBasic Complexity = iota
	ComplexityIntermediate
	ComplexityAdvanced
)

func (c Complexity) String() string {
	switch c {
	case ComplexityBasic:
		return "BASIC"
	case ComplexityAdvanced:
		return "ADVANCED"
	default:
		return "INTERMEDIATE"
	}
}

// ParseComplexity is lenient: unknown values are INTERMEDIATE.
func ParseComplexity(s string) Complexity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BASIC":
		return ComplexityBasic
	case "ADVANCED":
		return ComplexityAdvanced
	default:
		return ComplexityIntermediate
	}
}

func (c *Complexity) UnmarshalText(b []byte) error {
	*c = ParseComplexity(string(b))
	return nil
}

// QuestionType is the primary agronomic topic of a query.
type QuestionType int

const (
	QuestionGeneral QuestionType = iota
	QuestionWeatherClimate
	QuestionSoilHealth
	QuestionIrrigationWater
	QuestionDiseaseDiagnosis
	QuestionCropManagement
)

func (q QuestionType) String() string {
	switch q {
	case QuestionWeatherClimate:
		return "WEATHER_CLIMATE"
	case QuestionSoilHealth:
		return "SOIL_HEALTH"
	case QuestionIrrigationWater:
		return "IRRIGATION_WATER"
	case QuestionDiseaseDiagnosis:
		return "DISEASE_DIAGNOSIS"
	case QuestionCropManagement:
		return "CROP_MANAGEMENT"
	default:
		return "GENERAL_AGRICULTURE"
	}
}

// Priority of a knowledge item.
type Priority int

const (
	PriorityMedium Priority = iota
	PriorityHigh
)

func (p *Priority) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "high":
		*p = PriorityHigh
	case "medium", "":
		*p = PriorityMedium
	default:
		return fmt.Errorf("unknown priority %q", string(b))
	}
	return nil
}

// AnswerSource records which lane produced the answer text.
type AnswerSource int

const (
	SourceNone AnswerSource = iota
	SourceCanned
	SourceCache
	SourceExpress
	SourceShortcut
	SourceModel
	SourceDemo
	SourceApology
)

func (s AnswerSource) String() string {
	switch s {
	case SourceCanned:
		return "canned"
	case SourceCache:
		return "cache"
	case SourceExpress:
		return "express"
	case SourceShortcut:
		return "shortcut"
	case SourceModel:
		return "model"
	case SourceDemo:
		return "demo"
	case SourceApology:
		return "apology"
	default:
		return "none"
	}
}

// Cacheable reports whether an answer from this source may be stored in the response cache.
func (s AnswerSource) Cacheable() bool {
	return s == SourceModel
}

// SearchEngine identifies one general or scientific search backend.
type SearchEngine int

const (
	EngineWikipedia SearchEngine = iota + 1
	EngineArxiv
	EngineDuckDuckGo
)

// AllEngines is the order snippets are rendered in.
var AllEngines = []SearchEngine{EngineWikipedia, EngineArxiv, EngineDuckDuckGo}

func (e SearchEngine) String() string {
	switch e {
	case EngineWikipedia:
		return "Wikipedia"
	case EngineArxiv:
		return "Arxiv"
	case EngineDuckDuckGo:
		return "DuckDuckGo"
	default:
		return fmt.Sprintf("SearchEngine(%d)", int(e))
	}
}

// ToolName is the identifier the engine is exposed under in the graph's tools node.
func (e SearchEngine) ToolName() string {
	return "search_" + strings.ToLower(e.String())
}
