package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KV is a key-value persistence contract with JSON-encoded values.
type KV interface {
	// Get decodes the value stored under key into dst. It reports false
	// when the key does not exist.
	Get(key string, dst any) (bool, error)
	Set(key string, value any) error
	Remove(key string) error
	// Keys lists stored keys starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
}

var _ KV = (*DB)(nil)

// Get implements KV.
func (db *DB) Get(key string, dst any) (bool, error) {
	var raw string
	err := db.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Set implements KV.
func (db *DB) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Remove implements KV. Removing a missing key is not an error.
func (db *DB) Remove(key string) error {
	if _, err := db.conn.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

// Keys implements KV.
func (db *DB) Keys(prefix string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT key FROM kv WHERE instr(key, ?) = 1 ORDER BY key",
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
