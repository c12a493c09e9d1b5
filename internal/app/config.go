package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after defaults, the config file and
NUTRIWATCH_* environment overrides are applied. The API token is masked;
when it is a JWT its expiry is shown.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	output.SetNoColor(flagNoColor || !output.ShouldColor(cfg.Output.Color, os.Stdout))

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"config":      cfg.Redacted(),
			"config_file": configFileLabel(),
			"database":    config.DBPath(),
		})
	}

	renderConfig(out, cfg)
	return nil
}

func configFileLabel() string {
	if flagConfig != "" {
		return flagConfig
	}
	return filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
}

func renderConfig(w io.Writer, cfg *config.Config) {
	r := cfg.Redacted()
	_, _ = fmt.Fprintln(w, output.Section("Configuration", 0))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable("Key", "Value")
	tbl.AddRow("api.base_url", r.API.BaseURL)
	tbl.AddRow("api.token", tokenLabel(cfg.API.Token, r.API.Token))
	tbl.AddRow("api.timeout", r.API.Timeout.String())
	tbl.AddRow("api.page_size", fmt.Sprintf("%d", r.API.PageSize))
	tbl.AddRow("window.default_days", fmt.Sprintf("%d", r.Window.DefaultDays))
	tbl.AddRow("aggregation.merge_strategy", r.Aggregation.MergeStrategy)
	tbl.AddRow("aggregation.meal_categories", strings.Join(r.Aggregation.MealCategories, ", "))
	tbl.AddRow("aggregation.preserve_custom_categories", fmt.Sprintf("%t", r.Aggregation.PreserveCustomCategories))
	tbl.AddRow("goals.calories", fmt.Sprintf("%.0f", r.Goals.Calories))
	tbl.AddRow("goals.water_ml", fmt.Sprintf("%.0f", r.Goals.WaterML))
	tbl.AddRow("output.color", r.Output.Color)
	tbl.AddRow("output.width", fmt.Sprintf("%d", r.Output.Width))
	tbl.AddRow("log.level", r.Log.Level)
	tbl.Fprint(w)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, " Config file: %s\n", configFileLabel())
	_, _ = fmt.Fprintf(w, " Database:    %s\n", config.DBPath())
}

// tokenLabel describes the token without revealing it.
func tokenLabel(raw, masked string) string {
	if raw == "" {
		return output.StyleWarning.Render("(not set)")
	}
	info, ok, err := api.InspectToken(raw)
	switch {
	case err != nil:
		return masked + " " + output.StyleError.Render("(unreadable JWT)")
	case !ok || info.ExpiresAt.IsZero():
		return masked
	case info.Expired(time.Now()):
		return masked + " " + output.StyleError.Render("(expired "+info.ExpiresAt.Local().Format("2006-01-02 15:04")+")")
	default:
		return masked + " " + output.StyleMuted.Render("(expires "+info.ExpiresAt.Local().Format("2006-01-02 15:04")+")")
	}
}
