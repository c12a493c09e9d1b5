package intake

import (
	"fmt"
	"strings"
)

// MergeStrategy decides how a record folds into an existing merged entry
// that shares its day, category and entity. Merge returns false when the
// record must be discarded instead.
type MergeStrategy interface {
	Name() string
	Merge(entry *MergedEntry, r Record) bool
}

// Strategy names accepted by StrategyByName.
const (
	StrategyLastWriteWins   = "last-write-wins"
	StrategyKeepFirst       = "keep-first"
	StrategyRejectDuplicate = "reject-duplicate"
)

// LastWriteWins sums measures and lets the latest record in iteration order
// overwrite the rating and note when it carries one.
type LastWriteWins struct{}

func (LastWriteWins) Name() string { return StrategyLastWriteWins }

func (LastWriteWins) Merge(entry *MergedEntry, r Record) bool {
	accumulate(entry, r)
	if r.Rating != 0 {
		entry.Rating = r.Rating
	}
	if note := strings.TrimSpace(r.Note); note != "" {
		entry.Note = note
	}
	return true
}

// KeepFirst sums measures but only fills the rating and note when the entry
// has none yet.
type KeepFirst struct{}

func (KeepFirst) Name() string { return StrategyKeepFirst }

func (KeepFirst) Merge(entry *MergedEntry, r Record) bool {
	accumulate(entry, r)
	if entry.Rating == 0 {
		entry.Rating = r.Rating
	}
	if entry.Note == "" {
		entry.Note = strings.TrimSpace(r.Note)
	}
	return true
}

// RejectDuplicate keeps the first record for a key and discards the rest.
type RejectDuplicate struct{}

func (RejectDuplicate) Name() string { return StrategyRejectDuplicate }

func (RejectDuplicate) Merge(entry *MergedEntry, r Record) bool {
	return false
}

// StrategyByName resolves a configured strategy name. An empty name yields
// LastWriteWins.
func StrategyByName(name string) (MergeStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyLastWriteWins:
		return LastWriteWins{}, nil
	case StrategyKeepFirst:
		return KeepFirst{}, nil
	case StrategyRejectDuplicate:
		return RejectDuplicate{}, nil
	default:
		return nil, fmt.Errorf("unknown merge strategy %q; expected %s, %s or %s",
			name, StrategyLastWriteWins, StrategyKeepFirst, StrategyRejectDuplicate)
	}
}

func accumulate(entry *MergedEntry, r Record) {
	entry.Measures = entry.Measures.Add(r.Measures)
	entry.Count++
	entry.RecordIDs = append(entry.RecordIDs, r.ID)
}
