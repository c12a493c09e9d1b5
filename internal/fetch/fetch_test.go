package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_Monotonic(t *testing.T) {
	var s Sequencer
	assert.Equal(t, uint64(0), s.Latest())

	a := s.Next()
	b := s.Next()
	assert.Less(t, a, b)
	assert.False(t, s.IsLatest(a))
	assert.True(t, s.IsLatest(b))
}

func TestSequencer_Concurrent(t *testing.T) {
	var s Sequencer
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- s.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 100)
	assert.Equal(t, uint64(100), s.Latest())
}

func TestLoader_AppliesResult(t *testing.T) {
	l := NewLoader(func(ctx context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})

	items, applied, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, []int{1, 2, 3}, l.Current())
}

func TestLoader_ErrorFallsBackToEmpty(t *testing.T) {
	fail := false
	var reported error
	l := NewLoader(func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("network down")
		}
		return []string{"a"}, nil
	})
	l.OnError = func(err error) { reported = err }

	_, _, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, l.Current())

	fail = true
	items, applied, err := l.Load(context.Background())
	require.Error(t, err)
	assert.True(t, applied)
	assert.Nil(t, items)
	assert.NotNil(t, l.Current())
	assert.Empty(t, l.Current())
	assert.EqualError(t, reported, "network down")
}

func TestLoader_StaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls int32

	l := NewLoader(func(ctx context.Context) ([]string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			// The first request ignores cancellation and answers late.
			<-release
			return []string{"stale"}, nil
		}
		return []string{"fresh"}, nil
	})

	type result struct {
		items   []string
		applied bool
	}
	first := make(chan result, 1)
	go func() {
		items, applied, _ := l.Load(context.Background())
		first <- result{items, applied}
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)

	items, applied, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"fresh"}, items)

	close(release)
	r := <-first
	assert.False(t, r.applied)
	assert.Equal(t, []string{"stale"}, r.items)
	assert.Equal(t, []string{"fresh"}, l.Current())
}

func TestLoader_NewLoadCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	var calls int32

	l := NewLoader(func(ctx context.Context) ([]int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []int{42}, nil
	})

	var reported int32
	l.OnError = func(error) { atomic.AddInt32(&reported, 1) }

	firstErr := make(chan error, 1)
	go func() {
		_, _, err := l.Load(context.Background())
		firstErr <- err
	}()
	<-started

	items, applied, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []int{42}, items)

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&reported), "superseded failures are not reported")
	assert.Equal(t, []int{42}, l.Current())
}

func TestDeleteAll_AllSucceed(t *testing.T) {
	var mu sync.Mutex
	var called []string
	report := DeleteAll(context.Background(), []string{"3", "1", "2"}, func(ctx context.Context, id string) error {
		mu.Lock()
		called = append(called, id)
		mu.Unlock()
		return nil
	}, 2)

	assert.True(t, report.OK())
	assert.Equal(t, []string{"1", "2", "3"}, report.Deleted)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, called)
	assert.Equal(t, "Deleted 3 entries.", report.Message())
}

func TestDeleteAll_PartialFailureRunsEveryCall(t *testing.T) {
	var calls int32
	report := DeleteAll(context.Background(), []string{"a", "b", "c", "d"}, func(ctx context.Context, id string) error {
		atomic.AddInt32(&calls, 1)
		if id == "b" || id == "d" {
			return errors.New("boom")
		}
		return nil
	}, 1)

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.False(t, report.OK())
	assert.Equal(t, []string{"a", "c"}, report.Deleted)
	assert.Equal(t, []string{"b", "d"}, report.FailedIDs())
	assert.Equal(t, "Partially deleted: 2 of 4 entries removed; failed: b, d.", report.Message())
}

func TestDeleteReport_Messages(t *testing.T) {
	assert.Equal(t, "Nothing to delete.", DeleteReport{}.Message())
	assert.Equal(t, "Deleted 1 entry.", DeleteReport{Deleted: []string{"x"}}.Message())

	allFailed := DeleteReport{Failed: map[string]error{"x": errors.New("no")}}
	assert.Equal(t, "Failed to delete 1 entry: x.", allFailed.Message())
}
