// Package watcher provides background monitoring of the user's food and
// water logs, detecting new entries and goal crossings and emitting alerts.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/fetch"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/sethvargo/go-retry"
)

// Goals are the daily targets alerts are measured against. Zero disables
// the corresponding alert.
type Goals struct {
	Calories float64
	WaterML  float64
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// SubscribeFunc delivers live feed events until ctx ends or the
// connection drops.
type SubscribeFunc func(ctx context.Context, fn func(api.Event)) error

// Options configures a Watcher.
type Options struct {
	Interval time.Duration
	Goals    Goals

	// Aggregator merges food records; its Kind is ignored.
	Aggregator intake.Aggregator

	// Live, when set, triggers a reload on every feed event in addition
	// to the ticker.
	Live SubscribeFunc

	Logger *slog.Logger
	Now    func() time.Time
}

// Watcher polls the logs at a regular interval and emits alerts when
// notable changes are detected.
type Watcher struct {
	loader        *fetch.Loader[intake.Record]
	opts          Options
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
}

// New creates a Watcher that reloads records through fetchFn. fetchFn
// should return both food and water records.
func New(fetchFn func(ctx context.Context) ([]intake.Record, error), opts Options, alertFn func(Alert)) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	loader := fetch.NewLoader(fetchFn)
	loader.Logger = opts.Logger
	return &Watcher{
		loader:        loader,
		opts:          opts,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Run starts the watch loop. It takes an initial snapshot, then checks at
// every interval and after every live feed event. Blocks until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	trigger := make(chan struct{}, 1)
	if w.opts.Live != nil {
		go w.follow(ctx, trigger)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-trigger:
		}
		for _, a := range w.Check(ctx) {
			if w.alertFn != nil {
				w.alertFn(a)
			}
		}
	}
}

// follow keeps the live feed connected, reconnecting with capped
// exponential backoff, and coalesces events into trigger.
func (w *Watcher) follow(ctx context.Context, trigger chan<- struct{}) {
	backoff := retry.WithCappedDuration(time.Minute, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := w.opts.Live(ctx, func(ev api.Event) {
			w.opts.Logger.Debug("live event", "type", ev.Type, "kind", ev.Kind, "id", ev.ID)
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, api.ErrTokenExpired) {
			return err
		}
		w.opts.Logger.Warn("live feed disconnected", "error", err)
		return retry.RetryableError(fmt.Errorf("live feed: %w", err))
	})
	if err != nil && ctx.Err() == nil {
		w.opts.Logger.Error("live feed stopped", "error", err)
	}
}

// Check performs a single check cycle: takes a new snapshot, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes. A
// failed reload keeps the previous state.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		a := Alert{
			Level:   "warning",
			Title:   "Sync failed",
			Message: fmt.Sprintf("Could not load logs: %v", err),
			Time:    w.opts.Now(),
		}
		// Keep the keys of the last successful cycle so recovery does not
		// repeat its alerts.
		key := alertKey(a)
		if w.lastAlertKeys[key] {
			return nil
		}
		w.lastAlertKeys[key] = true
		return []Alert{a}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr, w.opts.Goals)
	}
	w.previous = curr
	return w.dedup(raw)
}

func (w *Watcher) dedup(raw []Alert) []Alert {
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := alertKey(a)
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys
	return alerts
}

func alertKey(a Alert) string {
	return a.Level + ":" + a.Title + ":" + a.Message
}

// Snapshot reloads the logs and summarizes them. Superseded responses are
// reported as an error so the cycle is skipped.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	records, applied, err := w.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, errors.New("response superseded by a newer reload")
	}
	now := w.opts.Now()
	state := BuildState(records, w.opts.Aggregator, now)
	w.opts.Logger.Debug("watch cycle", "records", len(records), "calories", state.Food.Calories, "water_ml", state.WaterML)
	return state, nil
}
