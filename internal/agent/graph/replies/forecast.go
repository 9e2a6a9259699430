package replies

import (
	"strings"

	"github.com/chashi-bhai/server/internal/agent/datasets"
	"github.com/chashi-bhai/server/internal/agent/model"
)

// ForecastText is the weather outlook given when no language model is
// configured. summary may be empty when every forecast source failed; power
// is the recent POWER window and may be nil.
func ForecastText(summary string, power *datasets.Result, days int) (string, []model.Dataset) {
	parts := []string{"**Chashi Bhai** - Weather & Farming Outlook"}
	if summary != "" {
		parts = append(parts, summary)
	}

	var used []model.Dataset
	if power != nil && power.Success {
		parts = append(parts, "**Recent Climate (NASA POWER 7-day)**")
		if recent := datasets.RecentClimate(power, days); recent != "" {
			parts = append(parts, recent)
		}
		used = append(used, model.DatasetPOWER)
	}

	parts = append(parts,
		"**Agronomic Guidance**",
		"• Use mulching to stabilize soil moisture if rainfall is low.",
		"• Adjust irrigation scheduling based on cumulative forecast rainfall.",
		"• Monitor for fungal disease if humidity and rainfall are elevated.",
	)

	text := strings.Join(parts, "\n")
	if len(used) > 0 {
		text += "\n\n**NASA dataset(s) used:** " + strings.Join(model.DatasetNames(used), ", ")
	}
	return text, used
}
