// Package store provides SQLite persistence for nutriwatch: a JSON
// key-value service with favorites and filter drafts built on it, and
// metric snapshots for tracking summaries over time.
package store

import "time"

// Snapshot represents a point-in-time capture of a window summary.
type Snapshot struct {
	ID         int64     `json:"id"`
	TakenAt    time.Time `json:"taken_at"`
	Kind       string    `json:"kind"`
	WindowDays int       `json:"window_days"`
	Version    string    `json:"version"`
}
