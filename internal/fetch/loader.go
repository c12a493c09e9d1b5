package fetch

import (
	"context"
	"log/slog"
	"sync"
)

// Loader runs a fetch function and keeps the result of the most recently
// started call. Starting a new Load cancels the one in flight; a response
// that completes after a newer Load was started is discarded.
type Loader[T any] struct {
	fetch func(ctx context.Context) ([]T, error)

	// OnError is called with failures of the latest request. Failures of
	// superseded requests are dropped.
	OnError func(error)

	Logger *slog.Logger

	seq Sequencer

	mu      sync.Mutex
	cancel  context.CancelFunc
	current []T
}

// NewLoader returns a Loader around fetch.
func NewLoader[T any](fetch func(ctx context.Context) ([]T, error)) *Loader[T] {
	return &Loader[T]{fetch: fetch, current: make([]T, 0)}
}

// Load starts a new request, cancelling any request still in flight. It
// returns the fetched items and whether they were applied as the current
// value. On a failed latest request the current value falls back to an empty
// slice and the error is returned.
func (l *Loader[T]) Load(ctx context.Context) ([]T, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Issue the id and swap the cancel func together so registration order
	// matches id order.
	l.mu.Lock()
	id := l.seq.Next()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	items, err := l.fetch(ctx)

	l.mu.Lock()
	if !l.seq.IsLatest(id) {
		l.mu.Unlock()
		l.logger().Debug("discarding superseded response", "request", id, "latest", l.seq.Latest())
		return items, false, err
	}
	l.cancel = nil
	if err != nil {
		l.current = make([]T, 0)
		l.mu.Unlock()
		if l.OnError != nil {
			l.OnError(err)
		}
		return nil, true, err
	}
	if items == nil {
		items = make([]T, 0)
	}
	l.current = items
	l.mu.Unlock()

	l.logger().Debug("applied response", "request", id, "items", len(items))
	return items, true, nil
}

// Current returns the most recently applied items.
func (l *Loader[T]) Current() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Loader[T]) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
