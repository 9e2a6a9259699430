package datasets

import (
	"context"
	"strings"

	"github.com/chashi-bhai/server/internal/agent/cache"
	"github.com/chashi-bhai/server/internal/core"
)

type guideline struct{ name, text string }

var (
	faoFoodSafety = []guideline{
		{"Pesticide Residue Limits", "Follow Codex Alimentarius MRLs"},
		{"Safe Harvest Interval", "Refer to pesticide label (typically 7-21 days)"},
		{"Organic Certification", "Contact Bangladesh Organic Products Manufacturers Association (BOPMA)"},
	}
	faoNutrition = []guideline{
		{"Nutrient Management", "Balanced NPK based on soil testing"},
		{"Micronutrients", "Zinc, Boron critical for Bangladesh soils"},
		{"Food Fortification", "Biofortified rice varieties (Zn-enriched BRRI dhan62, 64, 72)"},
	}
	faoSustainable = []guideline{
		{"Good Agricultural Practices", "Follow GAP certification standards"},
		{"Integrated Pest Management", "Reduce chemical pesticides by 50%"},
		{"Water Management", "AWD (Alternate Wetting and Drying) for rice"},
	}

	brriVarieties = []string{
		"BRRI dhan28, 29 (Boro - high yield)",
		"BRRI dhan49 (Aus - drought tolerant)",
		"BRRI dhan52 (Aman - salt tolerant)",
		"BRRI dhan62, 64, 72 (Zinc-enriched)",
	}
	brriInnovations = []string{
		"AWD (Alternate Wetting and Drying) irrigation - saves 25% water",
		"Drum seeder technology - reduces labor cost",
		"Mechanical transplanter - 8x faster than manual",
	}
	bariCrops = []string{
		"Potato: BARI Alu 7, 25, 28 (high yield varieties)",
		"Tomato: BARI Tomato 14, 15 (heat tolerant)",
		"Cabbage: BARI Bandhakopi 3 (disease resistant)",
	}
	bariTechnologies = []string{
		"Drip irrigation systems - 60% water saving",
		"Mulching techniques - moisture retention",
		"Protected cultivation - polyhouse, net house",
	}
	daeServices = []string{
		"Free soil testing at district BADC labs",
		"Farmer training programs",
		"Subsidy programs: 50% on drip irrigation, solar pumps",
		"Mobile apps: Krishi Prabaha (weather + advice)",
	}
)

// ResearchTopic picks the local-research focus from the English query and
// the farmer's original message.
func ResearchTopic(query, original string) string {
	q := strings.ToLower(query)
	o := strings.ToLower(original)
	switch {
	case strings.Contains(q, "rice") || strings.Contains(o, "ধান"):
		return "rice"
	case core.ContainsAny(q, "vegetable", "potato", "tomato", "cabbage") || strings.Contains(o, "সবজি"):
		return "vegetables"
	}
	return "general"
}

// References renders the FAO guidelines and Bangladesh research notes.
// Both are static tables; rendering is cached like any other source.
type References struct {
	store cache.Store
}

func NewReferences(store cache.Store) *References {
	return &References{store: store}
}

func (r *References) cached(ctx context.Context, key string, render func() string) string {
	if s, ok := cache.GetString(ctx, r.store, key, cache.TTLFAO); ok {
		return s
	}
	s := render()
	cache.SetJSON(ctx, r.store, key, s)
	return s
}

// FAO returns the food safety and sustainability block for a country code.
func (r *References) FAO(ctx context.Context, country string) string {
	return r.cached(ctx, "fao_safety_"+country, renderFAO)
}

// LocalResearch returns the research-institute block for a topic.
func (r *References) LocalResearch(ctx context.Context, topic string) string {
	return r.cached(ctx, "bd_agri_"+topic, func() string { return renderLocalResearch(topic) })
}

func writeGuidelines(b *strings.Builder, header string, gs []guideline) {
	b.WriteString(header + "\n")
	for _, g := range gs {
		b.WriteString("• " + g.name + ": " + g.text + "\n")
	}
}

func writeBullets(b *strings.Builder, items []string) {
	for _, it := range items {
		b.WriteString("• " + it + "\n")
	}
}

func renderFAO() string {
	var b strings.Builder
	b.WriteString("**🌍 FAO Food Safety & Sustainability Guidelines**\n\n")
	writeGuidelines(&b, "**🛡️ Food Safety Standards:**", faoFoodSafety)
	b.WriteString("\n")
	writeGuidelines(&b, "**🥗 Nutrition & Soil Health:**", faoNutrition)
	b.WriteString("\n")
	writeGuidelines(&b, "**♻️ Sustainable Agriculture:**", faoSustainable)
	return strings.TrimSuffix(b.String(), "\n")
}

func renderLocalResearch(topic string) string {
	t := strings.ToLower(topic)
	var b strings.Builder
	b.WriteString("**🇧🇩 Bangladesh Agricultural Research Institute Insights**\n\n")
	if strings.Contains(t, "rice") {
		b.WriteString("**🌾 Bangladesh Rice Research Institute:**\n**Recommended Varieties:**\n")
		writeBullets(&b, brriVarieties)
		b.WriteString("\n**Modern Technologies:**\n")
		writeBullets(&b, brriInnovations)
		b.WriteString("\n")
	}
	if core.ContainsAny(t, "vegetable", "potato", "tomato") {
		b.WriteString("**🥬 Bangladesh Agricultural Research Institute:**\n**High-Yield Varieties:**\n")
		writeBullets(&b, bariCrops)
		b.WriteString("\n**Water-Efficient Technologies:**\n")
		writeBullets(&b, bariTechnologies)
		b.WriteString("\n")
	}
	b.WriteString("**🏛️ Department of Agricultural Extension Services:**\n")
	writeBullets(&b, daeServices)
	return b.String()
}
