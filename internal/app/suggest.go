package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/suggest"
	"github.com/spf13/cobra"
)

var (
	suggestDays     string
	suggestWindow   int
	suggestLimit    int
	suggestCategory string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate ranked suggestions from your recent logs",
	Long: `Summarize food and water over a window and compare it with your goals,
macro balance, logging habits and the previous window. Suggestions are
scored by impact and sorted from highest to lowest.`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestDays, "days", "", "Custom window length in days (1-365)")
	suggestCmd.Flags().IntVar(&suggestWindow, "window", 0, "Preset window: 7, 30, 90, 180 or 365")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "Maximum number of suggestions to show")
	suggestCmd.Flags().StringVar(&suggestCategory, "category", "", "Filter by category (goals, hydration, balance, habits, trends)")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	days, err := resolveWindow(cmd, suggestDays, suggestWindow)
	if err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}
	if days == 0 {
		days = e.cfg.Window.DefaultDays
	}

	ctx := cmd.Context()
	food, err := e.loadRecords(ctx, intake.KindFood)
	if err != nil {
		return err
	}
	water, err := e.loadRecords(ctx, intake.KindWater)
	if err != nil {
		return err
	}

	now := time.Now()
	sctx := buildSuggestContext(
		buildReport(food, intake.Filter{}, e.food, days, now),
		buildReport(water, intake.Filter{}, e.water, days, now),
		e.cfg.Goals.Calories, e.cfg.Goals.WaterML,
		e.food.Categories,
	)
	suggestions := filterSuggestions(suggest.NewEngine().Run(sctx), suggestCategory, suggestLimit)

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	}
	renderSuggestions(out, suggestions, days)
	return nil
}

// buildSuggestContext collects the rule inputs from the food and water
// reports of the same window.
func buildSuggestContext(food, water windowReport, calorieGoal, waterGoal float64, meals []string) *suggest.Context {
	if meals == nil {
		meals = intake.DefaultMealCategories
	}
	mealDays := make(map[string]int, len(meals))
	for _, d := range food.Days {
		for _, name := range d.CategoryNames() {
			mealDays[name]++
		}
	}
	return &suggest.Context{
		WindowDays:  food.Window.Days,
		Food:        food.Summary,
		Water:       water.Summary,
		CalorieGoal: calorieGoal,
		WaterGoalML: waterGoal,
		Meals:       meals,
		MealDays:    mealDays,
	}
}

// filterSuggestions keeps one category (all when empty) and at most limit
// suggestions (all when limit is not positive).
func filterSuggestions(in []suggest.Suggestion, category string, limit int) []suggest.Suggestion {
	out := make([]suggest.Suggestion, 0, len(in))
	for _, s := range in {
		if category != "" && !strings.EqualFold(s.Category, category) {
			continue
		}
		out = append(out, s)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func renderSuggestions(w io.Writer, suggestions []suggest.Suggestion, days int) {
	_, _ = fmt.Fprintln(w, output.Section(fmt.Sprintf("Suggestions: last %d days", days), 0))
	_, _ = fmt.Fprintln(w)

	if len(suggestions) == 0 {
		_, _ = fmt.Fprintln(w, " "+output.StyleSuccess.Render("Nothing to suggest. Keep it up."))
		_, _ = fmt.Fprintln(w)
		return
	}

	for i, s := range suggestions {
		_, _ = fmt.Fprintf(w, " %s %s %s\n",
			output.StyleMuted.Render(fmt.Sprintf("%2d.", i+1)),
			priorityBadge(s.Priority),
			output.StyleBold.Render(s.Title))
		_, _ = fmt.Fprintf(w, "     %s\n", s.Description)
		_, _ = fmt.Fprintf(w, "     %s\n\n", output.StyleMuted.Render(fmt.Sprintf("%s · impact %.1f", s.Category, s.ImpactScore)))
	}
}

func priorityBadge(p int) string {
	switch p {
	case suggest.PriorityCritical:
		return output.StyleError.Render("[critical]")
	case suggest.PriorityHigh:
		return output.StyleWarning.Render("[high]")
	case suggest.PriorityMedium:
		return output.StyleHeader.Render("[medium]")
	default:
		return output.StyleMuted.Render("[low]")
	}
}
