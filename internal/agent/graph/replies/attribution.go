package replies

import (
	"strings"

	"github.com/chashi-bhai/server/internal/agent/model"
	"github.com/chashi-bhai/server/internal/core"
)

// FallbackSource is named when no provider is detected.
const FallbackSource = "Integrated Agricultural Knowledge Base"

type institute struct {
	name    string
	markers []string
}

var institutes = []institute{
	{"BRRI", []string{"BRRI", "RICE RESEARCH"}},
	{"BARI", []string{"BARI", "AGRICULTURAL RESEARCH INSTITUTE"}},
	{"BARC", []string{"BARC"}},
	{"DAE", []string{"DAE"}},
}

// Sources lists the providers that contributed to an answer. Live data that
// was actually fetched counts first; the answer text is only a secondary
// signal, so a source is never named unless one of the two shows it.
func Sources(answer string, live model.LiveData) []string {
	upper := strings.ToUpper(answer)
	var parts []string

	switch {
	case len(live.DatasetsUsed) > 0:
		parts = append(parts, "NASA Satellite ("+strings.Join(model.DatasetNames(live.DatasetsUsed), ", ")+")")
	case core.ContainsAny(upper, "NASA", "POWER", "MODIS", "SATELLITE"):
		parts = append(parts, "NASA Agricultural Data")
	}

	switch {
	case live.FAO != "":
		parts = append(parts, "FAO Standards")
	case strings.Contains(upper, "FAO"):
		parts = append(parts, "FAO (Food and Agriculture Organization)")
	}

	if live.LocalResearch != "" {
		var named []string
		for _, inst := range institutes {
			if core.ContainsAny(upper, inst.markers...) {
				named = append(named, inst.name)
			}
		}
		if len(named) > 0 {
			parts = append(parts, "Bangladesh Agricultural Research ("+strings.Join(named, ", ")+")")
		} else {
			parts = append(parts, "Bangladesh Agricultural Research Institute")
		}
	} else {
		var named []string
		for _, name := range []string{"BRRI", "BARI"} {
			if strings.Contains(upper, name) {
				named = append(named, name)
			}
		}
		if len(named) > 0 {
			parts = append(parts, "Bangladesh Agricultural Research ("+strings.Join(named, ", ")+")")
		}
	}

	if core.ContainsAny(upper, "DRIP IRRIGATION", "PRECISION", "IOT", "SENSOR", "DRONE", "AUTOMATION") {
		parts = append(parts, "Modern Agriculture Methods")
	}
	return parts
}

// Attribute appends the "Data Sources:" line to answer.
func Attribute(answer string, live model.LiveData) string {
	parts := Sources(answer, live)
	if len(parts) == 0 {
		parts = []string{FallbackSource}
	}
	return answer + "\n\n**Data Sources:** " + strings.Join(parts, ", ")
}
