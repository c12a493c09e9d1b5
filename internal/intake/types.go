// Package intake models logged food and water consumption and groups raw
// log records into calendar days.
package intake

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day format used for consumption dates.
const DateLayout = "2006-01-02"

// Kind distinguishes food logs from water logs.
type Kind string

const (
	KindFood  Kind = "food"
	KindWater Kind = "water"
)

// Measure names accepted by Measures.Get and record filters.
const (
	MeasureCalories = "calories"
	MeasureProtein  = "protein"
	MeasureCarbs    = "carbs"
	MeasureFats     = "fats"
	MeasureVolumeML = "volume_ml"
)

// MeasureNames lists every numeric measure in display order.
var MeasureNames = []string{MeasureCalories, MeasureProtein, MeasureCarbs, MeasureFats, MeasureVolumeML}

// Measures holds the numeric quantities carried by a record, entry or day.
type Measures struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	VolumeML float64 `json:"volume_ml"`
}

// Add returns the field-wise sum of m and o.
func (m Measures) Add(o Measures) Measures {
	return Measures{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fats:     m.Fats + o.Fats,
		VolumeML: m.VolumeML + o.VolumeML,
	}
}

// Get returns the named measure. Unknown names report false.
func (m Measures) Get(name string) (float64, bool) {
	switch name {
	case MeasureCalories:
		return m.Calories, true
	case MeasureProtein:
		return m.Protein, true
	case MeasureCarbs:
		return m.Carbs, true
	case MeasureFats:
		return m.Fats, true
	case MeasureVolumeML:
		return m.VolumeML, true
	default:
		return 0, false
	}
}

// Set assigns the named measure. Unknown names are ignored.
func (m *Measures) Set(name string, v float64) {
	switch name {
	case MeasureCalories:
		m.Calories = v
	case MeasureProtein:
		m.Protein = v
	case MeasureCarbs:
		m.Carbs = v
	case MeasureFats:
		m.Fats = v
	case MeasureVolumeML:
		m.VolumeML = v
	}
}

// Record is one logged intake event as returned by the tracking service.
type Record struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Category   string    `json:"category,omitempty"`
	Date       string    `json:"date"`
	RecordedAt time.Time `json:"recorded_at"`
	Measures   Measures  `json:"measures"`
	Note       string    `json:"note,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	Kind       Kind      `json:"kind"`
}

// MergedEntry combines every record sharing a day, category and entity.
type MergedEntry struct {
	Name      string   `json:"name"`
	EntityID  string   `json:"entity_id,omitempty"`
	Category  string   `json:"category,omitempty"`
	Measures  Measures `json:"measures"`
	Count     int      `json:"count"`
	RecordIDs []string `json:"record_ids"`
	Rating    int      `json:"rating,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// AggregatedDay is the set of merged entries for one calendar day.
type AggregatedDay struct {
	Date       string                    `json:"date"`
	Categories map[string][]*MergedEntry `json:"categories"`
	Totals     Measures                  `json:"totals"`
}

// CategoryNames returns the day's categories in sorted order.
func (d *AggregatedDay) CategoryNames() []string {
	names := make([]string, 0, len(d.Categories))
	for name := range d.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every merged entry of the day, grouped by category.
func (d *AggregatedDay) Entries() []*MergedEntry {
	var out []*MergedEntry
	for _, name := range d.CategoryNames() {
		out = append(out, d.Categories[name]...)
	}
	return out
}

// Time parses the day's date in the given location.
func (d *AggregatedDay) Time(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, d.Date, loc)
}

// SortedDates returns the keys of days in ascending order.
func SortedDates(days map[string]*AggregatedDay) []string {
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
