package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the nutriwatch setup is healthy",
	Long: `Run health checks against your configuration, the tracking service
and the local database. Prints a pass/fail line for each check and a
summary of how many passed. Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	output.SetNoColor(flagNoColor || !output.ShouldColor(cfg.Output.Color, os.Stdout))

	checks := []doctorCheck{
		checkConfigFile(configFileLabel()),
		checkToken(cfg.API.Token, time.Now()),
	}
	client := &api.Client{
		BaseURL:    cfg.API.BaseURL,
		Token:      cfg.API.Token,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
	}
	checks = append(checks,
		checkAPI(cmd.Context(), client, intake.KindFood),
		checkAPI(cmd.Context(), client, intake.KindWater),
		checkDatabase(config.DBPath()),
		checkWatchDaemon(),
	)

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doctorOutput{Checks: checks, PassedCount: passed, TotalCount: len(checks)}); err != nil {
			return err
		}
	} else {
		renderDoctor(out, checks, passed)
	}

	if passed < len(checks) {
		return fmt.Errorf("%d of %d checks failed", len(checks)-passed, len(checks))
	}
	return nil
}

func renderDoctor(w io.Writer, checks []doctorCheck, passed int) {
	_, _ = fmt.Fprintln(w, output.Section("Doctor", 0))
	_, _ = fmt.Fprintln(w)
	for _, c := range checks {
		indicator := output.StyleSuccess.Render("✓")
		if !c.Passed {
			indicator = output.StyleWarning.Render("✗")
		}
		_, _ = fmt.Fprintf(w, "  %s  %-24s %s\n", indicator, output.StyleBold.Render(c.Name), output.StyleMuted.Render(c.Message))
	}
	_, _ = fmt.Fprintln(w)

	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		_, _ = fmt.Fprintf(w, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		_, _ = fmt.Fprintf(w, " %s\n\n", output.StyleWarning.Render(summary))
	}
}

// checkConfigFile passes when the file exists. Running on defaults and
// environment variables alone is allowed but reported.
func checkConfigFile(path string) doctorCheck {
	c := doctorCheck{Name: "Config file"}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		c.Message = fmt.Sprintf("not found at %s (using defaults and NUTRIWATCH_* variables)", path)
	case info.IsDir():
		c.Message = fmt.Sprintf("%s is a directory", path)
	default:
		c.Passed = true
		c.Message = path
	}
	return c
}

func checkToken(token string, now time.Time) doctorCheck {
	c := doctorCheck{Name: "API token"}
	if token == "" {
		c.Message = "not set (api.token or NUTRIWATCH_API_TOKEN)"
		return c
	}
	info, ok, err := api.InspectToken(token)
	switch {
	case err != nil:
		c.Message = fmt.Sprintf("looks like a JWT but cannot be read: %v", err)
	case !ok || info.ExpiresAt.IsZero():
		c.Passed = true
		c.Message = "set"
	case info.Expired(now):
		c.Message = "expired " + info.ExpiresAt.Local().Format("2006-01-02 15:04")
	default:
		c.Passed = true
		c.Message = "valid until " + info.ExpiresAt.Local().Format("2006-01-02 15:04")
	}
	return c
}

type prober interface {
	Probe(ctx context.Context, kind intake.Kind) (int, error)
}

func checkAPI(ctx context.Context, client prober, kind intake.Kind) doctorCheck {
	c := doctorCheck{Name: fmt.Sprintf("API %s logs", kind)}
	start := time.Now()
	n, err := client.Probe(ctx, kind)
	if err != nil {
		c.Message = err.Error()
		return c
	}
	c.Passed = true
	c.Message = fmt.Sprintf("reachable, %d logs (%s)", n, time.Since(start).Round(time.Millisecond))
	return c
}

// checkDatabase opens the database, which also applies pending migrations.
func checkDatabase(path string) doctorCheck {
	c := doctorCheck{Name: "Local database"}
	db, err := store.Open(path)
	if err != nil {
		c.Message = err.Error()
		return c
	}
	defer func() { _ = db.Close() }()

	favs, err := store.NewFavorites(db).List()
	if err != nil {
		c.Message = err.Error()
		return c
	}
	c.Passed = true
	c.Message = fmt.Sprintf("%s (%d favorites)", path, len(favs))
	return c
}

// checkWatchDaemon reports the daemon state. A stopped daemon is not a
// failure; a stale PID file is.
func checkWatchDaemon() doctorCheck {
	c := doctorCheck{Name: "Watch daemon"}
	pid, err := readPID()
	switch {
	case os.IsNotExist(err):
		c.Passed = true
		c.Message = "not running"
	case err != nil:
		c.Message = fmt.Sprintf("unreadable PID file: %v", err)
	case !processExists(pid):
		c.Message = fmt.Sprintf("PID %d is not running (stale PID file, run 'nutriwatch watch --stop')", pid)
	default:
		c.Passed = true
		c.Message = fmt.Sprintf("running (PID %d)", pid)
	}
	return c
}
