package app

import (
	"bytes"
	"testing"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSuggestContext(t *testing.T) {
	food := buildReport(sampleFood(), intake.Filter{}, intake.Aggregator{Kind: intake.KindFood}, 7, testToday)
	water := buildReport([]intake.Record{waterRecord("w", "2024-03-09", 900)}, intake.Filter{}, intake.Aggregator{Kind: intake.KindWater}, 7, testToday)

	ctx := buildSuggestContext(food, water, 2000, 2500, nil)

	assert.Equal(t, 7, ctx.WindowDays)
	assert.Equal(t, 2, ctx.Food.Days)
	assert.Equal(t, 1, ctx.Water.Days)
	assert.Equal(t, intake.DefaultMealCategories, ctx.Meals)
	assert.Equal(t, 2, ctx.MealDays["Breakfast"])
	assert.Equal(t, 1, ctx.MealDays["Lunch"])
	assert.Zero(t, ctx.MealDays["Dinner"])
}

func TestBuildSuggestContext_FeedsEngine(t *testing.T) {
	food := buildReport(sampleFood(), intake.Filter{}, intake.Aggregator{Kind: intake.KindFood}, 7, testToday)
	water := buildReport(nil, intake.Filter{}, intake.Aggregator{Kind: intake.KindWater}, 7, testToday)

	got := suggest.NewEngine().Run(buildSuggestContext(food, water, 2000, 2000, nil))

	var titles []string
	for _, s := range got {
		titles = append(titles, s.Title)
	}
	assert.Contains(t, titles, "No water logged")
	assert.Contains(t, titles, "Log more consistently")
}

func TestFilterSuggestions(t *testing.T) {
	in := []suggest.Suggestion{
		{Title: "a", Category: suggest.CategoryGoals},
		{Title: "b", Category: suggest.CategoryHabits},
		{Title: "c", Category: suggest.CategoryHabits},
	}

	assert.Len(t, filterSuggestions(in, "", 0), 3)
	assert.Len(t, filterSuggestions(in, "", 2), 2)

	got := filterSuggestions(in, "HABITS", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Title)
}

func TestRenderSuggestions(t *testing.T) {
	output.SetNoColor(true)
	t.Cleanup(func() { output.SetNoColor(false) })

	var buf bytes.Buffer
	renderSuggestions(&buf, nil, 7)
	assert.Contains(t, buf.String(), "Nothing to suggest")

	buf.Reset()
	renderSuggestions(&buf, []suggest.Suggestion{{
		Title: "Drink more water", Description: "Short by half.", Category: suggest.CategoryHydration,
		Priority: suggest.PriorityHigh, ImpactScore: 3.5,
	}}, 30)
	out := buf.String()
	assert.Contains(t, out, "Suggestions: last 30 days")
	assert.Contains(t, out, "[high]")
	assert.Contains(t, out, "Drink more water")
	assert.Contains(t, out, "hydration · impact 3.5")
}
