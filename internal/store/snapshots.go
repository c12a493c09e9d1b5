package store

import (
	"database/sql"
	"errors"
	"time"
)

// CreateSnapshot inserts a new snapshot and returns its ID.
func (db *DB) CreateSnapshot(kind string, windowDays int, version string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (taken_at, kind, window_days, version) VALUES (?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), kind, windowDays, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetSnapshotN returns the Nth most recent snapshot of a kind (1 = latest,
// 2 = previous, etc.), or nil if there is none.
func (db *DB) GetSnapshotN(kind string, n int) (*Snapshot, error) {
	if n < 1 {
		n = 1
	}
	row := db.conn.QueryRow(
		"SELECT id, taken_at, kind, window_days, version FROM snapshots WHERE kind = ? ORDER BY id DESC LIMIT 1 OFFSET ?",
		kind, n-1,
	)
	return scanSnapshot(row)
}

// ListSnapshots returns up to limit snapshots of a kind, newest first.
func (db *DB) ListSnapshots(kind string, limit int) ([]Snapshot, error) {
	rows, err := db.conn.Query(
		"SELECT id, taken_at, kind, window_days, version FROM snapshots WHERE kind = ? ORDER BY id DESC LIMIT ?",
		kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var takenAt string
		if err := rows.Scan(&s.ID, &takenAt, &s.Kind, &s.WindowDays, &s.Version); err != nil {
			return nil, err
		}
		s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Kind, &s.WindowDays, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertSnapshotMetric inserts a named metric value for a snapshot.
func (db *DB) InsertSnapshotMetric(snapshotID int64, name string, value float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO snapshot_metrics (snapshot_id, metric_name, metric_value) VALUES (?, ?, ?)",
		snapshotID, name, value,
	)
	return err
}

// GetSnapshotMetrics returns every metric of a snapshot keyed by name.
func (db *DB) GetSnapshotMetrics(snapshotID int64) (map[string]float64, error) {
	rows, err := db.conn.Query(
		"SELECT metric_name, metric_value FROM snapshot_metrics WHERE snapshot_id = ?",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	metrics := make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metrics[name] = value
	}
	return metrics, rows.Err()
}
