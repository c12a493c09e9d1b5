package watcher

import (
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
)

// WatchState captures a point-in-time summary of the logs.
type WatchState struct {
	Timestamp time.Time
	Date      string // today, YYYY-MM-DD

	// Today's totals.
	Food         intake.Measures
	WaterML      float64
	FoodEntries  int
	WaterEntries int

	RecordCount int

	records map[string]intake.Record // all records by recordKey
}

// recordKey identifies a record across kinds. Food and water ids come from
// separate tables and may collide.
func recordKey(r intake.Record) string {
	kind := r.Kind
	if kind == "" {
		kind = intake.KindFood
	}
	return string(kind) + ":" + r.ID
}

// BuildState summarizes records as of now. Food records are merged with agg
// so duplicate rejection applies to the totals too.
func BuildState(records []intake.Record, agg intake.Aggregator, now time.Time) *WatchState {
	state := &WatchState{
		Timestamp: now,
		Date:      now.Format(intake.DateLayout),
		records:   make(map[string]intake.Record, len(records)),
	}

	var food, water []intake.Record
	for _, r := range records {
		if r.ID != "" {
			state.records[recordKey(r)] = r
		}
		switch r.Kind {
		case intake.KindWater:
			water = append(water, r)
		default:
			food = append(food, r)
		}
	}
	state.RecordCount = len(state.records)

	agg.Kind = intake.KindFood
	if day, ok := agg.Aggregate(food)[state.Date]; ok {
		state.Food = day.Totals
		state.FoodEntries = len(day.Entries())
	}

	waterAgg := intake.Aggregator{Kind: intake.KindWater}
	if day, ok := waterAgg.Aggregate(water)[state.Date]; ok {
		state.WaterML = day.Totals.VolumeML
		for _, e := range day.Entries() {
			state.WaterEntries += e.Count
		}
	}
	return state
}

// Compare detects notable changes between two watch states and returns
// alerts ordered warning before info.
func Compare(prev, curr *WatchState, goals Goals) []Alert {
	var alerts []Alert
	alerts = append(alerts, compareGoals(prev, curr, goals)...)
	alerts = append(alerts, compareEntries(prev, curr)...)
	return alerts
}

// compareGoals reports goal crossings. A new day starts from zero.
func compareGoals(prev, curr *WatchState, goals Goals) []Alert {
	var alerts []Alert
	now := curr.Timestamp

	prevCalories, prevWater := prev.Food.Calories, prev.WaterML
	if prev.Date != curr.Date {
		prevCalories, prevWater = 0, 0
	}

	if goals.Calories > 0 && curr.Food.Calories > goals.Calories && prevCalories <= goals.Calories {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Calorie goal exceeded",
			Message: fmt.Sprintf("%.0f kcal today (goal: %.0f)", curr.Food.Calories, goals.Calories),
			Time:    now,
		})
	}

	if goals.WaterML > 0 && curr.WaterML >= goals.WaterML && prevWater < goals.WaterML {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Water goal reached",
			Message: fmt.Sprintf("%.0f ml today (goal: %.0f)", curr.WaterML, goals.WaterML),
			Time:    now,
		})
	}
	return alerts
}

// compareEntries reports records added or removed since prev.
func compareEntries(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := curr.Timestamp

	for _, r := range newRecords(prev, curr) {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   entryTitle(r),
			Message: entryMessage(r),
			Time:    now,
		})
	}

	removed := 0
	for key := range prev.records {
		if _, ok := curr.records[key]; !ok {
			removed++
		}
	}
	if removed > 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Entries removed",
			Message: fmt.Sprintf("%d entr%s no longer in your log", removed, pluralY(removed)),
			Time:    now,
		})
	}
	return alerts
}

// newRecords returns records present in curr but not in prev, ordered by
// date, kind, then id.
func newRecords(prev, curr *WatchState) []intake.Record {
	var out []intake.Record
	for key, r := range curr.records {
		if _, ok := prev.records[key]; !ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func entryTitle(r intake.Record) string {
	if r.Kind == intake.KindWater {
		return "Water logged"
	}
	name := r.Name
	if name == "" {
		name = "entry"
	}
	return fmt.Sprintf("Logged: %s", name)
}

func entryMessage(r intake.Record) string {
	if r.Kind == intake.KindWater {
		return fmt.Sprintf("%.0f ml on %s", r.Measures.VolumeML, r.Date)
	}
	category := r.Category
	if category == "" {
		category = intake.CategoryOther
	}
	return fmt.Sprintf("%.0f kcal, %s on %s", r.Measures.Calories, category, r.Date)
}

func pluralY(n int) string {
	if n == 1 {
		return "y is"
	}
	return "ies are"
}
