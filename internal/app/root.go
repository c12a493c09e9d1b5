// Package app contains the Cobra command tree for nutriwatch.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "nutriwatch",
	Short: "Daily nutrition and hydration summaries from your tracker",
	Long: `nutriwatch pulls your food and water logs from the tracking service,
merges them into calendar days, and summarizes them over a time window with
comparisons against the preceding window. It keeps favorites, saved filters
and metric snapshots in a local database and can watch for new entries.

Set api.base_url and api.token in ~/.config/nutriwatch/config.yaml or via
NUTRIWATCH_API_BASE_URL and NUTRIWATCH_API_TOKEN.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "nutriwatch", appVersion)
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "Use a subcommand:")
		_, _ = fmt.Fprintln(out, "  food        Daily food totals, macros and trends for a window")
		_, _ = fmt.Fprintln(out, "  water       Daily water intake for a window")
		_, _ = fmt.Fprintln(out, "  delete      Delete every log behind a merged entry")
		_, _ = fmt.Fprintln(out, "  favorites   Manage favorite foods")
		_, _ = fmt.Fprintln(out, "  track       Snapshot window metrics and compare over time")
		_, _ = fmt.Fprintln(out, "  watch       Alert on new entries and goal crossings")
		_, _ = fmt.Fprintln(out, "  suggest     Ranked suggestions from your recent logs")
		_, _ = fmt.Fprintln(out, "  doctor      Check whether the setup is healthy")
		_, _ = fmt.Fprintln(out, "  mcp         Serve your data to an assistant over MCP")
		_, _ = fmt.Fprintln(out, "  config      Show the effective configuration")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/nutriwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging on stderr")
}
