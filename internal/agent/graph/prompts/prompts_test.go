package prompts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chashi-bhai/server/internal/agent/model"
)

func TestSeasonContext(t *testing.T) {
	tests := []struct {
		month time.Month
		short string
	}{
		{time.January, "Rabi"},
		{time.March, "Rabi"},
		{time.April, "Pre-Kharif"},
		{time.June, "Pre-Kharif"},
		{time.July, "Kharif"},
		{time.October, "Kharif"},
		{time.November, "Rabi"},
		{time.December, "Rabi"},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			s := SeasonContext(time.Date(2025, tt.month, 15, 9, 0, 0, 0, time.UTC))
			assert.Equal(t, tt.short, s.Short)
			assert.Equal(t, int(tt.month), s.MonthNum)
		})
	}

	s := SeasonContext(time.Date(2025, time.August, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "August 05, 2025", s.Date)
	assert.Equal(t, "Kharif/Monsoon (Ashadh-Kartik)", s.Name)
	assert.Equal(t, 32, s.Week)
	assert.Equal(t, 2025, s.Year)
}

func TestAssembleContext_Order(t *testing.T) {
	got := AssembleContext(model.ContextLayers{
		FewShot:     "EXAMPLE",
		Knowledge:   "FACTS",
		Specialized: "CROP SHEET",
		User:        "PROFILE",
	}, model.LiveData{
		NASAInsights:  "NASA",
		FAO:           "FAO",
		LocalResearch: "BD",
		Search:        "WEB",
	})

	order := []string{fewShotBanner, "EXAMPLE", knowledgeBanner, "FACTS\n\nCROP SHEET", userBanner, "PROFILE", "\nNASA\n", "FAO\n", "BD\n", "WEB\n"}
	last := -1
	for _, part := range order {
		idx := strings.Index(got, part)
		require.GreaterOrEqual(t, idx, 0, "missing %q", part)
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}
	assert.Equal(t, 1, strings.Count(got, knowledgeBanner))
}

func TestAssembleContext_SkipsEmptyLayers(t *testing.T) {
	assert.Empty(t, AssembleContext(model.ContextLayers{}, model.LiveData{}))

	got := AssembleContext(model.ContextLayers{Specialized: "CROP SHEET"}, model.LiveData{})
	assert.Contains(t, got, knowledgeBanner+"\nCROP SHEET\n"+wideRule)
	assert.NotContains(t, got, fewShotBanner)
	assert.NotContains(t, got, userBanner)
}

func TestDataBlock(t *testing.T) {
	long := strings.Repeat("x", 800)
	got := DataBlock([]Snippet{
		{Engine: model.EngineDuckDuckGo, Text: "Prices for urea rose this month."},
		{Engine: model.EngineWikipedia, Text: "Rice is a staple food in Bangladesh."},
		{Engine: model.EngineArxiv, Text: "   short   "},
	})
	assert.Equal(t,
		"**Wikipedia Knowledge:** Rice is a staple food in Bangladesh.\n\n**Current Information (Web):** Prices for urea rose this month.",
		got)

	got = DataBlock([]Snippet{{Engine: model.EngineArxiv, Text: long}})
	assert.Equal(t, "**Scientific Research (Arxiv):** "+long[:maxSnippet], got)

	assert.Empty(t, DataBlock(nil))
}

func TestRenderAnswer_Compact(t *testing.T) {
	msgs, err := RenderAnswer(context.Background(), AnswerInput{
		Query:    "When should I sow mustard?",
		Analysis: model.QuestionAnalysis{PrimaryType: model.QuestionCropManagement, Complexity: model.ComplexityBasic},
		Location: "Dhaka",
		Context:  "LAYERS",
		Season:   SeasonContext(time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "You are Chashi Bhai")
	assert.NotContains(t, msgs[0].Content, "{app}")

	user := msgs[1].Content
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, user, `"For Dhaka:"`)
	assert.Contains(t, user, "FARMER'S QUESTION: When should I sow mustard?")
	assert.Contains(t, user, "CURRENT SEASON: Rabi/Winter (Agrahayan-Falgun)")
	assert.Contains(t, user, "LAYERS")
	assert.NotContains(t, user, "DATA:")
	assert.True(t, strings.HasSuffix(user, ReasoningSuffix))
}

func TestRenderAnswer_ExpandedWithData(t *testing.T) {
	msgs, err := RenderAnswer(context.Background(), AnswerInput{
		Query:    "Plan precision irrigation for boro",
		Analysis: model.QuestionAnalysis{PrimaryType: model.QuestionIrrigationWater, Complexity: model.ComplexityAdvanced},
		Data:     "**Wikipedia Knowledge:** Boro rice",
		Season:   SeasonContext(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	user := msgs[1].Content
	assert.Contains(t, user, "QUESTION TYPE: IRRIGATION_WATER")
	assert.Contains(t, user, "USER'S LOCATION: "+DefaultLocation)
	assert.Contains(t, user, "\n\nDATA: **Wikipedia Knowledge:** Boro rice\n")
	assert.Contains(t, user, `FARMER'S QUESTION: "Plan precision irrigation for boro"`)
	assert.True(t, strings.HasSuffix(user, ReasoningSuffix))
}
