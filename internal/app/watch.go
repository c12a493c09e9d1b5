package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/logging"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchLive     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Alert on new entries and goal crossings",
	Long: `Poll your food and water logs and alert when entries are added or
removed, when today's calories pass goals.calories, or when today's water
reaches goals.water_ml. With --live the service's change feed triggers a
reload as soon as something is logged.

Examples:
  nutriwatch watch                    # run in foreground (ctrl-c to stop)
  nutriwatch watch --live             # also follow the live change feed
  nutriwatch watch --interval 1m      # poll every minute (default: 5m)
  nutriwatch watch --daemon &         # run in background, write PID file
  nutriwatch watch --stop             # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "5m", "Poll interval as duration string (e.g. 1m, 1h)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().BoolVar(&watchLive, "live", false, "Follow the service's live change feed")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout())
	}

	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
	}
	if interval < 30*time.Second {
		return fmt.Errorf("interval must be at least 30s, got %s", interval)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	if watchDaemon {
		return runDaemon(cmd.Context(), e, interval)
	}
	return runForeground(cmd.Context(), cmd.OutOrStdout(), e, interval)
}

func newWatcher(e *env, interval time.Duration, alertFn func(watcher.Alert)) *watcher.Watcher {
	opts := watcher.Options{
		Interval:   interval,
		Goals:      watcher.Goals{Calories: e.cfg.Goals.Calories, WaterML: e.cfg.Goals.WaterML},
		Aggregator: e.food,
		Logger:     e.logger,
	}
	if watchLive {
		opts.Live = e.client.Subscribe
	}
	return watcher.New(e.loadAllRecords, opts, alertFn)
}

// runForeground runs the watcher in the foreground with live terminal output.
func runForeground(ctx context.Context, out io.Writer, e *env, interval time.Duration) error {
	if !watchQuiet {
		mode := ""
		if watchLive {
			mode = " and following the live feed"
		}
		_, _ = fmt.Fprintf(out, "nutriwatch watching... (checking every %s%s)\n", interval, mode)
	}

	alertFn := func(a watcher.Alert) {
		e.notify(a)
		if !watchQuiet {
			printAlert(out, a)
		}
	}

	w := newWatcher(e, interval, alertFn)

	// Take initial snapshot and display baseline.
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}
	if !watchQuiet {
		_, _ = fmt.Fprintf(out, "[%s] %s Today: %.0f kcal in %d entries, %.0f ml water\n",
			time.Now().Format("15:04:05"),
			checkMark(),
			initial.Food.Calories,
			initial.FoodEntries,
			initial.WaterML)
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			_, _ = fmt.Fprintln(out, "\nStopped.")
		}
		return nil
	}
	return err
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(ctx context.Context, e *env, interval time.Duration) error {
	if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	// Alerts are logged at info regardless of the configured level.
	level := e.cfg.Log.Level
	if logging.ParseLevel(level) > slog.LevelInfo {
		level = "info"
	}
	if flagVerbose {
		level = "debug"
	}
	e.logger = logging.Setup(logFile, level)
	e.client.Logger = e.logger

	e.logger.Info("daemon started", "pid", pid, "interval", interval, "live", watchLive)

	alertFn := func(a watcher.Alert) {
		e.notify(a)
		e.logger.Info(a.Title, "level", a.Level, "message", a.Message)
	}

	err = newWatcher(e, interval, alertFn).Run(ctx)
	if errors.Is(err, context.Canceled) {
		e.logger.Info("daemon stopped")
		return nil
	}
	return err
}

// stopDaemon reads the PID file and terminates the running daemon.
func stopDaemon(out io.Writer) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}

	if !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, cleaned up stale PID file)", pid)
	}

	if err := terminate(pid); err != nil {
		return fmt.Errorf("failed to stop daemon (PID %d): %w", pid, err)
	}

	_ = os.Remove(pidFilePath())
	_, _ = fmt.Fprintf(out, "Stopped daemon (PID %d)\n", pid)
	return nil
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// printAlert formats and prints an alert to the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s %s\n", timestamp, alertIcon(a.Level), a.Title)
	if a.Message != "" {
		_, _ = fmt.Fprintf(w, "         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return output.StyleError.Render("●")
	case "warning":
		return output.StyleWarning.Render("▲")
	case "info":
		return output.StyleSuccess.Render("✓")
	default:
		return " "
	}
}

func checkMark() string {
	return output.StyleSuccess.Render("✓")
}
