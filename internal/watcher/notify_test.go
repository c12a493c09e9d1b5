package watcher

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_FallbackWritesAlert(t *testing.T) {
	var buf bytes.Buffer
	n := &Notifier{Fallback: &buf}

	err := n.Notify(Alert{
		Level:   "warning",
		Title:   "Sync failed",
		Message: "connection refused",
		Time:    time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "[warning] Sync failed: connection refused\n", buf.String())
}

func TestNotifier_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	n := &Notifier{Fallback: &buf}

	require.NoError(t, n.Notify(Alert{Title: "Deleted", Message: "2 entries"}))
	assert.Equal(t, "[info] Deleted: 2 entries\n", buf.String())
}

func TestNotify_DoesNotPanic(t *testing.T) {
	// Depending on the environment this reaches a desktop notifier or stderr.
	assert.NotPanics(t, func() {
		_ = Notify(Alert{Level: "info", Title: "Water logged", Message: "250 ml"})
	})
}
