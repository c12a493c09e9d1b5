package intake

import (
	"strings"
	"time"
)

// CategoryOther collects food records whose meal label is not recognized.
const CategoryOther = "Other"

// waterEntryName labels the single per-day entry produced for water logs.
const waterEntryName = "Water"

// DefaultMealCategories are the meal labels recognized out of the box.
var DefaultMealCategories = []string{"Breakfast", "Lunch", "Dinner", "Snack"}

// Aggregator groups records into calendar days.
type Aggregator struct {
	Kind Kind

	// Categories are the recognized meal labels. Nil means DefaultMealCategories.
	Categories []string

	// PreserveCustom keeps unrecognized labels verbatim instead of folding
	// them into CategoryOther.
	PreserveCustom bool

	// Strategy merges duplicate food records. Nil means LastWriteWins.
	// Water is always a running sum.
	Strategy MergeStrategy
}

type entryKey struct {
	category string
	entityID string
	name     string
}

var waterKey = entryKey{name: waterEntryName}

// Aggregate groups records by consumption date. Records without a valid
// date are dropped. The returned map has no defined iteration order; use
// SortedDates when presenting.
func (a Aggregator) Aggregate(records []Record) map[string]*AggregatedDay {
	strategy := a.Strategy
	if strategy == nil {
		strategy = LastWriteWins{}
	}

	days := make(map[string]*AggregatedDay)
	index := make(map[string]map[entryKey]*MergedEntry)

	for _, r := range records {
		date := strings.TrimSpace(r.Date)
		if !validDate(date) {
			continue
		}

		day, ok := days[date]
		if !ok {
			day = &AggregatedDay{Date: date, Categories: make(map[string][]*MergedEntry)}
			days[date] = day
			index[date] = make(map[entryKey]*MergedEntry)
		}

		key := a.keyFor(r)
		if entry, ok := index[date][key]; ok {
			if key == waterKey {
				accumulate(entry, r)
			} else {
				strategy.Merge(entry, r)
			}
			continue
		}

		entry := &MergedEntry{
			Name:     key.name,
			EntityID: key.entityID,
			Category: key.category,
			Rating:   r.Rating,
			Note:     strings.TrimSpace(r.Note),
		}
		accumulate(entry, r)
		index[date][key] = entry
		day.Categories[key.category] = append(day.Categories[key.category], entry)
	}

	for _, day := range days {
		day.Totals = totalOf(day)
	}
	return days
}

// keyFor computes the merge key of a record. Water records collapse into one
// key per day.
func (a Aggregator) keyFor(r Record) entryKey {
	if a.Kind == KindWater || r.Kind == KindWater {
		return waterKey
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = r.EntityID
	}
	return entryKey{
		category: a.Category(r.Category),
		entityID: r.EntityID,
		name:     name,
	}
}

// Category canonicalizes a meal label against the recognized set.
func (a Aggregator) Category(label string) string {
	label = strings.TrimSpace(label)
	categories := a.Categories
	if categories == nil {
		categories = DefaultMealCategories
	}
	for _, c := range categories {
		if strings.EqualFold(c, label) {
			return c
		}
	}
	if a.PreserveCustom && label != "" {
		return label
	}
	return CategoryOther
}

func totalOf(day *AggregatedDay) Measures {
	var total Measures
	for _, entries := range day.Categories {
		for _, e := range entries {
			total = total.Add(e.Measures)
		}
	}
	return total
}

func validDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
