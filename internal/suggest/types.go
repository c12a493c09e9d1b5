// Package suggest turns window summaries into ranked habit suggestions.
package suggest

import "github.com/blackwell-systems/nutriwatch/internal/metrics"

// Priority levels for suggestions.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Suggestion categories.
const (
	CategoryGoals     = "goals"
	CategoryHydration = "hydration"
	CategoryBalance   = "balance"
	CategoryHabits    = "habits"
	CategoryTrends    = "trends"
)

// Suggestion is one actionable recommendation.
type Suggestion struct {
	Category    string  `json:"category"`
	Priority    int     `json:"priority"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImpactScore float64 `json:"impact_score"`
}

// Context is everything the rules look at. It describes one window.
type Context struct {
	// WindowDays is the length of the window in calendar days.
	WindowDays int `json:"window_days"`

	// Food and Water summarize the days with at least one log. Their Days
	// field is the number of logged days.
	Food  metrics.Summary `json:"food"`
	Water metrics.Summary `json:"water"`

	// Goals; zero disables the related rules.
	CalorieGoal float64 `json:"calorie_goal"`
	WaterGoalML float64 `json:"water_goal_ml"`

	// Meals are the recognized meal categories, in display order.
	Meals []string `json:"meals"`

	// MealDays counts, per meal, the days on which it was logged.
	MealDays map[string]int `json:"meal_days"`
}

// Rule examines the context and produces zero or more suggestions.
type Rule func(ctx *Context) []Suggestion
