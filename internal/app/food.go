package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/blackwell-systems/nutriwatch/internal/window"
	"github.com/spf13/cobra"
)

var (
	foodDays      string
	foodWindow    int
	foodSearch    string
	foodCategory  string
	foodMeasure   string
	foodMin       float64
	foodMax       float64
	foodFrom      string
	foodTo        string
	foodDraft     string
	foodSaveDraft string
	foodEntries   bool
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Daily food totals, macros and trends for a window",
	Long: `Fetch your food logs, merge repeated entries per day and meal, and
summarize the selected window: daily totals, a calorie chart against your
goal, mean/min/max per macro, macro distribution, and the change against
the window of equal length right before it.

Examples:
  nutriwatch food                          # default window (window.default_days)
  nutriwatch food --window 30              # preset: 7, 30, 90, 180 or 365
  nutriwatch food --days 14                # custom window, 1-365 days
  nutriwatch food --search yogurt --category breakfast
  nutriwatch food --measure protein --min 30 --save-draft high-protein
  nutriwatch food --draft high-protein --entries`,
	RunE: runFood,
}

func init() {
	foodCmd.Flags().StringVar(&foodDays, "days", "", "Custom window length in days (1-365)")
	foodCmd.Flags().IntVar(&foodWindow, "window", 0, "Preset window: 7, 30, 90, 180 or 365")
	foodCmd.Flags().StringVar(&foodSearch, "search", "", "Only entries whose name or note contains this text")
	foodCmd.Flags().StringVar(&foodCategory, "category", "", "Only this meal (breakfast, lunch, dinner, snack, other)")
	foodCmd.Flags().StringVar(&foodMeasure, "measure", "", "Measure for --min/--max (calories, protein, carbs, fats)")
	foodCmd.Flags().Float64Var(&foodMin, "min", 0, "Inclusive lower bound on --measure per entry")
	foodCmd.Flags().Float64Var(&foodMax, "max", 0, "Inclusive upper bound on --measure per entry")
	foodCmd.Flags().StringVar(&foodFrom, "from", "", "Only entries on or after this date (YYYY-MM-DD)")
	foodCmd.Flags().StringVar(&foodTo, "to", "", "Only entries on or before this date (YYYY-MM-DD)")
	foodCmd.Flags().StringVar(&foodDraft, "draft", "", "Start from a saved filter draft")
	foodCmd.Flags().StringVar(&foodSaveDraft, "save-draft", "", "Save the effective filter under this name")
	foodCmd.Flags().BoolVar(&foodEntries, "entries", false, "List the merged entries behind each day")
	rootCmd.AddCommand(foodCmd)
}

func runFood(cmd *cobra.Command, args []string) error {
	days, err := resolveWindow(cmd, foodDays, foodWindow)
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

	needDB := foodDraft != "" || foodSaveDraft != "" || foodEntries
	var db *store.DB
	if needDB {
		db, err = openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
	}

	var f intake.Filter
	if foodDraft != "" {
		draft, ok, err := store.NewDrafts(db).Load(foodDraft)
		if err != nil {
			return fmt.Errorf("loading draft: %w", err)
		}
		if !ok {
			return fmt.Errorf("no saved draft named %q", foodDraft)
		}
		f = draft
	}
	f = overlayFilter(cmd, f)
	if err := f.Validate(); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	if foodSaveDraft != "" {
		if err := store.NewDrafts(db).Save(foodSaveDraft, f); err != nil {
			return fmt.Errorf("saving draft: %w", err)
		}
		e.logger.Info("saved filter draft", "name", foodSaveDraft)
	}

	records, loadErr := e.loadRecords(cmd.Context(), intake.KindFood)
	report := buildReport(records, f, e.food, days, time.Now())

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		return loadErr
	}

	renderReport(out, report, e.cfg)
	if foodEntries && len(report.Days) > 0 {
		favs, err := favoriteSet(db)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out)
		renderEntries(out, report, favs)
	}
	return loadErr
}

// overlayFilter applies explicitly set filter flags on top of base.
func overlayFilter(cmd *cobra.Command, base intake.Filter) intake.Filter {
	flags := cmd.Flags()
	if flags.Changed("search") {
		base.Query = foodSearch
	}
	if flags.Changed("category") {
		base.Category = foodCategory
	}
	if flags.Changed("measure") {
		base.Measure = foodMeasure
	}
	if flags.Changed("min") {
		v := foodMin
		base.Min = &v
	}
	if flags.Changed("max") {
		v := foodMax
		base.Max = &v
	}
	if flags.Changed("from") {
		base.From = foodFrom
	}
	if flags.Changed("to") {
		base.To = foodTo
	}
	return base
}

// resolveWindow validates --days and --window before anything runs. Zero
// means neither was given.
func resolveWindow(cmd *cobra.Command, days string, preset int) (int, error) {
	daysSet := cmd.Flags().Changed("days")
	presetSet := cmd.Flags().Changed("window")
	switch {
	case daysSet && presetSet:
		return 0, fmt.Errorf("use either --days or --window, not both")
	case daysSet:
		return window.ParseDays(days)
	case presetSet:
		if !window.IsPreset(preset) {
			return 0, fmt.Errorf("%w: --window must be one of %v; use --days for a custom length", window.ErrInvalidWindow, window.Presets)
		}
		return preset, nil
	default:
		return 0, nil
	}
}

func favoriteSet(db *store.DB) (map[string]bool, error) {
	list, err := store.NewFavorites(db).List()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(list))
	for _, f := range list {
		set[f.EntityID] = true
	}
	return set, nil
}
