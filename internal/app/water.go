package app

import (
	"encoding/json"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/spf13/cobra"
)

var (
	waterDays   string
	waterWindow int
	waterFrom   string
	waterTo     string
)

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Daily water intake for a window",
	Long: `Fetch your water logs, sum them per day, and summarize the selected
window against your daily water goal and the preceding window.

Examples:
  nutriwatch water
  nutriwatch water --window 30
  nutriwatch water --days 3 --json`,
	RunE: runWater,
}

func init() {
	waterCmd.Flags().StringVar(&waterDays, "days", "", "Custom window length in days (1-365)")
	waterCmd.Flags().IntVar(&waterWindow, "window", 0, "Preset window: 7, 30, 90, 180 or 365")
	waterCmd.Flags().StringVar(&waterFrom, "from", "", "Only logs on or after this date (YYYY-MM-DD)")
	waterCmd.Flags().StringVar(&waterTo, "to", "", "Only logs on or before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(waterCmd)
}

func runWater(cmd *cobra.Command, args []string) error {
	days, err := resolveWindow(cmd, waterDays, waterWindow)
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

	f := intake.Filter{From: waterFrom, To: waterTo}
	if err := f.Validate(); err != nil {
		return err
	}

	records, loadErr := e.loadRecords(cmd.Context(), intake.KindWater)
	report := buildReport(records, f, e.water, days, time.Now())

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
	return loadErr
}
