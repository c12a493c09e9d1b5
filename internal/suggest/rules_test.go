package suggest

import (
	"testing"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foodSummary(days int, m intake.Measures) metrics.Summary {
	return metrics.Summary{Days: days, Mean: m, Distribution: metrics.Distribute(m)}
}

func TestCalorieGoalOverrun(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want int
	}{
		{"no goal", Context{Food: foodSummary(5, intake.Measures{Calories: 3000})}, 0},
		{"no days", Context{CalorieGoal: 2000}, 0},
		{"within 10%", Context{CalorieGoal: 2000, Food: foodSummary(5, intake.Measures{Calories: 2150})}, 0},
		{"over", Context{WindowDays: 7, CalorieGoal: 2000, Food: foodSummary(5, intake.Measures{Calories: 2500})}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalorieGoalOverrun(&tt.ctx)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, CategoryGoals, got[0].Category)
				assert.Contains(t, got[0].Description, "25% above")
				assert.Positive(t, got[0].ImpactScore)
			}
		})
	}
}

func TestHydrationGap(t *testing.T) {
	t.Run("no goal", func(t *testing.T) {
		assert.Empty(t, HydrationGap(&Context{Water: metrics.Summary{Days: 3}}))
	})
	t.Run("nothing logged", func(t *testing.T) {
		assert.Empty(t, HydrationGap(&Context{WaterGoalML: 2000}))
	})
	t.Run("food but no water", func(t *testing.T) {
		got := HydrationGap(&Context{WindowDays: 7, WaterGoalML: 2000, Food: foodSummary(4, intake.Measures{Calories: 1800})})
		require.Len(t, got, 1)
		assert.Equal(t, "No water logged", got[0].Title)
	})
	t.Run("short of goal", func(t *testing.T) {
		got := HydrationGap(&Context{WindowDays: 7, WaterGoalML: 2000, Water: metrics.Summary{Days: 7, Mean: intake.Measures{VolumeML: 1000}}})
		require.Len(t, got, 1)
		assert.Equal(t, PriorityHigh, got[0].Priority)
		assert.Contains(t, got[0].Description, "50% short")
	})
	t.Run("close enough", func(t *testing.T) {
		assert.Empty(t, HydrationGap(&Context{WaterGoalML: 2000, Water: metrics.Summary{Days: 7, Mean: intake.Measures{VolumeML: 1700}}}))
	})
}

func TestMacroRules(t *testing.T) {
	balanced := &Context{WindowDays: 7, Food: foodSummary(7, intake.Measures{Protein: 100, Carbs: 200, Fats: 70})}
	assert.Empty(t, LowProteinShare(balanced))
	assert.Empty(t, HighFatShare(balanced))

	skewed := &Context{WindowDays: 7, Food: foodSummary(7, intake.Measures{Protein: 10, Carbs: 40, Fats: 50})}
	require.Len(t, LowProteinShare(skewed), 1)
	require.Len(t, HighFatShare(skewed), 1)

	// Calories without any macros say nothing about balance.
	caloriesOnly := &Context{WindowDays: 7, Food: foodSummary(7, intake.Measures{Calories: 1500})}
	assert.Empty(t, LowProteinShare(caloriesOnly))
}

func TestLoggingGaps(t *testing.T) {
	assert.Empty(t, LoggingGaps(&Context{WindowDays: 2}))
	assert.Empty(t, LoggingGaps(&Context{WindowDays: 10, Food: metrics.Summary{Days: 7}}))

	got := LoggingGaps(&Context{WindowDays: 10, Food: metrics.Summary{Days: 3}})
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Description, "3 of the last 10 days")
	assert.InDelta(t, ComputeImpact(7, 0.7, 3, 2), got[0].ImpactScore, 0.0001)
}

func TestSkippedMeals(t *testing.T) {
	ctx := &Context{
		Food:     metrics.Summary{Days: 6},
		Meals:    []string{"Breakfast", "Lunch", "Dinner"},
		MealDays: map[string]int{"Breakfast": 2, "Lunch": 3, "Dinner": 6},
	}
	got := SkippedMeals(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "Breakfast is often missing", got[0].Title)

	ctx.Food.Days = 2
	assert.Empty(t, SkippedMeals(ctx))
}

func TestTrendRules(t *testing.T) {
	ctx := &Context{
		WindowDays: 7,
		Food:       metrics.Summary{Days: 7, Comparable: true, Change: intake.Measures{Calories: 20}},
		Water:      metrics.Summary{Days: 7, Comparable: true, Change: intake.Measures{VolumeML: -30}},
	}
	require.Len(t, CalorieTrend(ctx), 1)
	require.Len(t, HydrationTrend(ctx), 1)
	assert.Contains(t, HydrationTrend(ctx)[0].Description, "fell 30.0%")

	ctx.Food.Comparable = false
	ctx.Water.Change.VolumeML = -10
	assert.Empty(t, CalorieTrend(ctx))
	assert.Empty(t, HydrationTrend(ctx))
}
