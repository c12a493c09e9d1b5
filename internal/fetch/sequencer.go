// Package fetch coordinates requests against the tracking service: it
// sequences overlapping loads so a stale response never replaces a newer one,
// and it runs bulk deletes to completion while collecting every outcome.
package fetch

import "sync"

// Sequencer hands out monotonically increasing request ids and remembers the
// most recent one.
type Sequencer struct {
	mu     sync.Mutex
	latest uint64
}

// Next issues a new request id. It becomes the latest id.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// IsLatest reports whether id is the most recently issued id.
func (s *Sequencer) IsLatest(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id == s.latest
}

// Latest returns the most recently issued id, or zero if none was issued.
func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
