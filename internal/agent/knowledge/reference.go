package knowledge

import (
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/chashi-bhai/server/internal/agent/model"
)

type Crop struct {
	Name              string   `yaml:"name"`
	Varieties         []string `yaml:"varieties"`
	GrowthStages      []string `yaml:"growth_stages"`
	WaterRequirements string   `yaml:"water_requirements"`
	SoilPH            string   `yaml:"soil_ph"`
	Temperature       string   `yaml:"temperature"`
	Diseases          []string `yaml:"diseases"`
	Pests             []string `yaml:"pests"`
}

type Disease struct {
	Name       string   `yaml:"name"`
	Crops      []string `yaml:"crops"`
	Pathogen   string   `yaml:"pathogen"`
	Symptoms   string   `yaml:"symptoms"`
	Conditions string   `yaml:"conditions"`
	Prevention string   `yaml:"prevention"`
}

// Reference is the crop and disease lookup table.
type Reference struct {
	Crops    []Crop    `yaml:"crops"`
	Diseases []Disease `yaml:"diseases"`
}

func loadReference(b []byte) (*Reference, error) {
	var r Reference
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse reference tables: %w", err)
	}
	return &r, nil
}

var soilFramework = []string{
	"**SOIL ANALYSIS FRAMEWORK:**",
	"• **pH Management**: Acidic (<6.0) vs Alkaline (>7.5) soil treatments",
	"• **Nutrient Deficiencies**: N (yellowing), P (purple leaves), K (leaf burn)",
	"• **Organic Matter**: Target 3-5% for optimal soil health",
	"• **Soil Testing**: Annual testing recommended for precision management",
}

// SpecializedContext adds reference rows for disease, crop and soil questions.
func (r *Reference) SpecializedContext(analysis model.QuestionAnalysis, query string) string {
	q := strings.ToLower(query)
	var lines []string

	switch analysis.PrimaryType {
	case model.QuestionDiseaseDiagnosis:
		var hits []string
		for _, d := range r.Diseases {
			if strings.Contains(q, d.Name) || (d.Pathogen != "" && strings.Contains(q, strings.ToLower(d.Pathogen))) {
				hits = append(hits, fmt.Sprintf("**%s**: %s", titleCase(d.Name), d.Symptoms))
			}
		}
		if len(hits) > 0 {
			lines = append(lines, "**DISEASE REFERENCE DATABASE:**")
			lines = append(lines, hits[:min(3, len(hits))]...)
		}

	case model.QuestionCropManagement:
		var hits []string
		for _, c := range r.Crops {
			if !strings.Contains(q, c.Name) {
				continue
			}
			stages := c.GrowthStages[:min(4, len(c.GrowthStages))]
			hits = append(hits,
				fmt.Sprintf("**%s**: Growth stages: %s", titleCase(c.Name), strings.Join(stages, ", ")),
				fmt.Sprintf("• Optimal pH: %s, Temperature: %s", orNA(c.SoilPH), orNA(c.Temperature)),
			)
		}
		if len(hits) > 0 {
			lines = append(lines, "**CROP REFERENCE DATABASE:**")
			lines = append(lines, hits[:min(4, len(hits))]...)
		}

	case model.QuestionSoilHealth:
		lines = append(lines, soilFramework...)
	}

	return strings.Join(lines, "\n")
}

// CountryContext is a one-line climate note for the few countries we know.
func CountryContext(locationName string) string {
	l := strings.ToLower(locationName)
	switch {
	case l == "":
		return ""
	case strings.Contains(l, "bangladesh"):
		return "**Climate:** Tropical monsoon, rice-dominant agriculture, 3 seasons (Aman/Aus/Boro)"
	case strings.Contains(l, "india"):
		return "**Climate:** Monsoon-based, Kharif/Rabi seasons, diverse crops"
	case strings.Contains(l, "usa"), strings.Contains(l, "america"):
		return "**Climate:** Temperate, advanced tech adoption, precision agriculture"
	case strings.Contains(l, "china"):
		return "**Climate:** Diverse zones, large-scale production, tech innovation"
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// titleCase upper-cases the first letter of every letter run: late_blight -> Late_Blight.
func titleCase(s string) string {
	out := []rune(s)
	prevLetter := false
	for i, r := range out {
		if unicode.IsLetter(r) {
			if !prevLetter {
				out[i] = unicode.ToUpper(r)
			} else {
				out[i] = unicode.ToLower(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(out)
}
