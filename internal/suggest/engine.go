package suggest

// Engine runs every registered rule against a Context.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the built-in rules.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			CalorieGoalOverrun,
			HydrationGap,
			LowProteinShare,
			HighFatShare,
			LoggingGaps,
			SkippedMeals,
			CalorieTrend,
			HydrationTrend,
		},
	}
}

// Run executes all rules and returns the suggestions ranked by impact.
func (e *Engine) Run(ctx *Context) []Suggestion {
	var all []Suggestion
	for _, rule := range e.rules {
		all = append(all, rule(ctx)...)
	}
	return RankSuggestions(all)
}
