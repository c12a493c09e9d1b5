package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns a scripted sequence of responses; the last one repeats.
type fakeSource struct {
	mu    sync.Mutex
	steps []func() ([]intake.Record, error)
	calls int
}

func (f *fakeSource) fetch(context.Context) ([]intake.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.calls, len(f.steps)-1)
	f.calls++
	return f.steps[i]()
}

func records(rs ...intake.Record) func() ([]intake.Record, error) {
	return func() ([]intake.Record, error) { return rs, nil }
}

func failing(msg string) func() ([]intake.Record, error) {
	return func() ([]intake.Record, error) { return nil, errors.New(msg) }
}

func fixedNow() time.Time { return testNow }

func TestCheck_AlertsAndDedup(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200)),
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200), meal("2", "2024-03-10", "Snack", "Nuts", 2000)),
	}}
	w := New(src.fetch, Options{Goals: Goals{Calories: 2000}, Now: fixedNow}, nil)

	initial, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	w.previous = initial

	alerts := w.Check(context.Background())
	assert.Equal(t, []string{"Calorie goal exceeded", "Logged: Nuts"}, titles(alerts))

	assert.Empty(t, w.Check(context.Background()))
}

func TestCheck_FetchFailureKeepsPreviousState(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200)),
		failing("connection refused"),
		failing("connection refused"),
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200)),
	}}
	w := New(src.fetch, Options{Now: fixedNow}, nil)

	initial, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	w.previous = initial

	alerts := w.Check(context.Background())
	require.Len(t, alerts, 1)
	assert.Equal(t, "Sync failed", alerts[0].Title)
	assert.Contains(t, alerts[0].Message, "connection refused")

	// Repeated failure is suppressed.
	assert.Empty(t, w.Check(context.Background()))

	// Recovery does not report the entry as removed and re-added.
	assert.Empty(t, w.Check(context.Background()))
}

func TestCheck_FailureKeepsSuppressedAlerts(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200), meal("2", "2024-03-10", "Lunch", "Bread", 150)),
		records(meal("1", "2024-03-10", "Lunch", "Soup", 200)),
		failing("timeout"),
		records(),
		failing("timeout"),
	}}
	w := New(src.fetch, Options{Now: fixedNow}, nil)

	initial, err := w.Snapshot(context.Background())
	require.NoError(t, err)
	w.previous = initial

	assert.Equal(t, []string{"Entries removed"}, titles(w.Check(context.Background())))
	assert.Equal(t, []string{"Sync failed"}, titles(w.Check(context.Background())))

	// The identical removal alert from before the failure stays suppressed.
	assert.Empty(t, w.Check(context.Background()))

	// A later failure is reported again once a cycle has succeeded.
	assert.Equal(t, []string{"Sync failed"}, titles(w.Check(context.Background())))
}

func TestRun_InitialSnapshotError(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){failing("offline")}}
	w := New(src.fetch, Options{Now: fixedNow}, nil)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial snapshot")
}

func TestRun_LiveEventTriggersCheck(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){
		records(),
		records(sip("w1", "2024-03-10", 500)),
	}}

	got := make(chan Alert, 4)
	live := func(ctx context.Context, fn func(api.Event)) error {
		fn(api.Event{Type: "created", Kind: intake.KindWater, ID: "w1"})
		<-ctx.Done()
		return ctx.Err()
	}
	w := New(src.fetch, Options{Interval: time.Hour, Live: live, Now: fixedNow}, func(a Alert) { got <- a })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case a := <-got:
		assert.Equal(t, "Water logged", a.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no alert after live event")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_TickerTriggersCheck(t *testing.T) {
	src := &fakeSource{steps: []func() ([]intake.Record, error){
		records(),
		records(meal("1", "2024-03-10", "Dinner", "Curry", 700)),
	}}

	got := make(chan Alert, 4)
	w := New(src.fetch, Options{Interval: 10 * time.Millisecond, Now: fixedNow}, func(a Alert) { got <- a })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case a := <-got:
		assert.Equal(t, "Logged: Curry", a.Title)
	case <-ctx.Done():
		t.Fatal("no alert from ticker")
	}
}
