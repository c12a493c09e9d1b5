package fetch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultDeleteLimit caps concurrent delete calls.
const defaultDeleteLimit = 4

// DeleteReport is the settled outcome of a bulk delete.
type DeleteReport struct {
	Deleted []string         `json:"deleted"`
	Failed  map[string]error `json:"-"`
}

// OK reports whether every delete succeeded.
func (r DeleteReport) OK() bool {
	return len(r.Failed) == 0
}

// FailedIDs returns the ids whose delete failed, sorted.
func (r DeleteReport) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Message summarizes the outcome for the user.
func (r DeleteReport) Message() string {
	total := len(r.Deleted) + len(r.Failed)
	switch {
	case total == 0:
		return "Nothing to delete."
	case r.OK():
		return fmt.Sprintf("Deleted %d %s.", total, plural(total, "entry", "entries"))
	case len(r.Deleted) == 0:
		return fmt.Sprintf("Failed to delete %d %s: %s.", total, plural(total, "entry", "entries"), strings.Join(r.FailedIDs(), ", "))
	default:
		return fmt.Sprintf("Partially deleted: %d of %d %s removed; failed: %s.",
			len(r.Deleted), total, plural(total, "entry", "entries"), strings.Join(r.FailedIDs(), ", "))
	}
}

// DeleteAll calls del once per id and waits for every call to settle. A
// failure does not stop the remaining calls and nothing is rolled back.
// limit caps concurrency; zero or less uses a default.
func DeleteAll(ctx context.Context, ids []string, del func(ctx context.Context, id string) error, limit int) DeleteReport {
	if limit <= 0 {
		limit = defaultDeleteLimit
	}

	var (
		mu     sync.Mutex
		report = DeleteReport{Deleted: make([]string, 0, len(ids)), Failed: make(map[string]error)}
	)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			err := del(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[id] = err
			} else {
				report.Deleted = append(report.Deleted, id)
			}
			// Outcomes are collected in the report so every call runs.
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Deleted)
	return report
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
