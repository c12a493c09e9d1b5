package suggest

import (
	"fmt"
	"math"
)

// Thresholds used by the built-in rules.
const (
	calorieOverrunRatio = 1.10
	hydrationGapRatio   = 0.80
	minProteinPct       = 15.0
	maxFatPct           = 40.0
	minLoggedShare      = 0.70
	minMealShare        = 0.50
	minDaysForHabits    = 3
	trendThresholdPct   = 15.0
)

func share(n, of int) float64 {
	if of <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/float64(of))
}

// CalorieGoalOverrun flags a mean daily intake more than 10% above the goal.
func CalorieGoalOverrun(ctx *Context) []Suggestion {
	if ctx.CalorieGoal <= 0 || ctx.Food.Days == 0 {
		return nil
	}
	mean := ctx.Food.Mean.Calories
	if mean <= ctx.CalorieGoal*calorieOverrunRatio {
		return nil
	}
	over := (mean - ctx.CalorieGoal) / ctx.CalorieGoal * 100
	return []Suggestion{{
		Category: CategoryGoals,
		Priority: PriorityHigh,
		Title:    "Average calories are above your goal",
		Description: fmt.Sprintf(
			"You averaged %.0f kcal over %d logged days, %.0f%% above your %.0f kcal goal. "+
				"Look at the largest entries with 'nutriwatch food --entries'.",
			mean, ctx.Food.Days, over, ctx.CalorieGoal,
		),
		ImpactScore: ComputeImpact(ctx.Food.Days, share(ctx.Food.Days, ctx.WindowDays), math.Min(10, over/5), 5),
	}}
}

// HydrationGap flags water intake below 80% of the goal, or no water logs
// at all while food is being logged.
func HydrationGap(ctx *Context) []Suggestion {
	if ctx.WaterGoalML <= 0 {
		return nil
	}
	if ctx.Water.Days == 0 {
		if ctx.Food.Days == 0 {
			return nil
		}
		return []Suggestion{{
			Category:    CategoryHydration,
			Priority:    PriorityMedium,
			Title:       "No water logged",
			Description: fmt.Sprintf("You logged food on %d days but no water. Logging water shows progress toward your %.0f ml goal.", ctx.Food.Days, ctx.WaterGoalML),
			ImpactScore: ComputeImpact(ctx.Food.Days, share(ctx.Food.Days, ctx.WindowDays), 5, 2),
		}}
	}
	mean := ctx.Water.Mean.VolumeML
	if mean >= ctx.WaterGoalML*hydrationGapRatio {
		return nil
	}
	short := (ctx.WaterGoalML - mean) / ctx.WaterGoalML * 100
	return []Suggestion{{
		Category: CategoryHydration,
		Priority: PriorityHigh,
		Title:    "Drink more water",
		Description: fmt.Sprintf(
			"You averaged %.0f ml on %d days, %.0f%% short of your %.0f ml goal.",
			mean, ctx.Water.Days, short, ctx.WaterGoalML,
		),
		ImpactScore: ComputeImpact(ctx.Water.Days, share(ctx.Water.Days, ctx.WindowDays), math.Min(10, short/5), 3),
	}}
}

// LowProteinShare flags protein below 15% of macro grams.
func LowProteinShare(ctx *Context) []Suggestion {
	m := ctx.Food.Mean
	if ctx.Food.Days == 0 || m.Protein+m.Carbs+m.Fats == 0 {
		return nil
	}
	pct := ctx.Food.Distribution.Protein
	if pct >= minProteinPct {
		return nil
	}
	return []Suggestion{{
		Category:    CategoryBalance,
		Priority:    PriorityMedium,
		Title:       "Protein share is low",
		Description: fmt.Sprintf("Protein made up %.1f%% of your macro grams (%.0f g per day). Aim for at least %.0f%%.", pct, ctx.Food.Mean.Protein, minProteinPct),
		ImpactScore: ComputeImpact(ctx.Food.Days, share(ctx.Food.Days, ctx.WindowDays), (minProteinPct-pct)/2, 4),
	}}
}

// HighFatShare flags fats above 40% of macro grams.
func HighFatShare(ctx *Context) []Suggestion {
	if ctx.Food.Days == 0 {
		return nil
	}
	pct := ctx.Food.Distribution.Fats
	if pct <= maxFatPct {
		return nil
	}
	return []Suggestion{{
		Category:    CategoryBalance,
		Priority:    PriorityLow,
		Title:       "Fat share is high",
		Description: fmt.Sprintf("Fats made up %.1f%% of your macro grams (%.0f g per day).", pct, ctx.Food.Mean.Fats),
		ImpactScore: ComputeImpact(ctx.Food.Days, share(ctx.Food.Days, ctx.WindowDays), (pct-maxFatPct)/4, 5),
	}}
}

// LoggingGaps flags windows where fewer than 70% of days have food logs.
// Summaries over sparse logs are misleading.
func LoggingGaps(ctx *Context) []Suggestion {
	if ctx.WindowDays < minDaysForHabits {
		return nil
	}
	logged := share(ctx.Food.Days, ctx.WindowDays)
	if logged >= minLoggedShare {
		return nil
	}
	missing := ctx.WindowDays - ctx.Food.Days
	return []Suggestion{{
		Category:    CategoryHabits,
		Priority:    PriorityMedium,
		Title:       "Log more consistently",
		Description: fmt.Sprintf("Food was logged on %d of the last %d days. Averages and trends are more reliable with daily logs.", ctx.Food.Days, ctx.WindowDays),
		ImpactScore: ComputeImpact(missing, 1-logged, 3, 2),
	}}
}

// SkippedMeals flags recognized meals logged on fewer than half of the
// logged days.
func SkippedMeals(ctx *Context) []Suggestion {
	if ctx.Food.Days < minDaysForHabits {
		return nil
	}
	var suggestions []Suggestion
	for _, meal := range ctx.Meals {
		n := ctx.MealDays[meal]
		if share(n, ctx.Food.Days) >= minMealShare {
			continue
		}
		skipped := ctx.Food.Days - n
		suggestions = append(suggestions, Suggestion{
			Category:    CategoryHabits,
			Priority:    PriorityLow,
			Title:       fmt.Sprintf("%s is often missing", meal),
			Description: fmt.Sprintf("%s was logged on %d of %d logged days. Either it is being skipped or not recorded.", meal, n, ctx.Food.Days),
			ImpactScore: ComputeImpact(skipped, share(skipped, ctx.Food.Days), 2, 3),
		})
	}
	return suggestions
}

// CalorieTrend flags calories rising more than 15% against the previous
// window.
func CalorieTrend(ctx *Context) []Suggestion {
	if !ctx.Food.Comparable {
		return nil
	}
	change := ctx.Food.Change.Calories
	if change <= trendThresholdPct {
		return nil
	}
	return []Suggestion{{
		Category:    CategoryTrends,
		Priority:    PriorityMedium,
		Title:       "Calories are trending up",
		Description: fmt.Sprintf("Average daily calories rose %.1f%% compared with the previous %d days.", change, ctx.WindowDays),
		ImpactScore: ComputeImpact(ctx.Food.Days, share(ctx.Food.Days, ctx.WindowDays), math.Min(10, change/5), 4),
	}}
}

// HydrationTrend flags water intake falling more than 15% against the
// previous window.
func HydrationTrend(ctx *Context) []Suggestion {
	if !ctx.Water.Comparable {
		return nil
	}
	change := ctx.Water.Change.VolumeML
	if change >= -trendThresholdPct {
		return nil
	}
	return []Suggestion{{
		Category:    CategoryTrends,
		Priority:    PriorityMedium,
		Title:       "Water intake is trending down",
		Description: fmt.Sprintf("Average daily water fell %.1f%% compared with the previous %d days.", -change, ctx.WindowDays),
		ImpactScore: ComputeImpact(ctx.Water.Days, share(ctx.Water.Days, ctx.WindowDays), math.Min(10, -change/5), 3),
	}}
}
