package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notifier delivers alerts as desktop notifications, printing to Fallback
// when no notification system is available.
type Notifier struct {
	// Desktop enables osascript on macOS and notify-send on Linux.
	Desktop  bool
	Fallback io.Writer
}

var defaultNotifier = &Notifier{Desktop: true, Fallback: os.Stderr}

// Notify sends a desktop notification for the given alert, falling back to
// stderr. Commands use it to surface fetch and delete failures without
// blocking.
func Notify(alert Alert) error {
	return defaultNotifier.Notify(alert)
}

// Notify sends alert. Desktop failures fall through to the writer.
func (n *Notifier) Notify(alert Alert) error {
	if n.Desktop {
		switch runtime.GOOS {
		case "darwin":
			if notifyMacOS(alert) == nil {
				return nil
			}
		case "linux":
			if notifyLinux(alert) == nil {
				return nil
			}
		}
	}
	return n.fallback(alert)
}

func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "nutriwatch" subtitle %q`,
		alert.Message, alert.Title,
	)
	return exec.Command("osascript", "-e", script).Run()
}

func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return err
	}
	args := []string{fmt.Sprintf("nutriwatch: %s", alert.Title), alert.Message}
	if alert.Level == "critical" {
		args = append([]string{"--urgency=critical"}, args...)
	}
	return exec.Command("notify-send", args...).Run()
}

func (n *Notifier) fallback(alert Alert) error {
	w := n.Fallback
	if w == nil {
		w = os.Stderr
	}
	level := alert.Level
	if level == "" {
		level = "info"
	}
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", level, alert.Title, alert.Message)
	return err
}
