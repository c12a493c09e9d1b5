package intake

import (
	"fmt"
	"strings"
)

// Filter narrows a record list before aggregation. Zero-valued fields do not
// constrain.
type Filter struct {
	Query    string   `json:"query,omitempty"`
	Category string   `json:"category,omitempty"`
	Measure  string   `json:"measure,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// Validate reports inconsistent filter settings.
func (f Filter) Validate() error {
	if f.Measure != "" {
		if _, ok := (Measures{}).Get(f.Measure); !ok {
			return fmt.Errorf("unknown measure %q; expected one of %s", f.Measure, strings.Join(MeasureNames, ", "))
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("min %.1f is greater than max %.1f", *f.Min, *f.Max)
	}
	for _, d := range []string{f.From, f.To} {
		if d != "" && !validDate(d) {
			return fmt.Errorf("invalid date %q; expected YYYY-MM-DD", d)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return fmt.Errorf("from date %s is after to date %s", f.From, f.To)
	}
	return nil
}

// Match reports whether r passes the filter. Categories are compared after
// canonicalization by agg.
func (f Filter) Match(r Record, agg Aggregator) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Note), q) {
			return false
		}
	}
	if f.Category != "" && agg.Category(r.Category) != agg.Category(f.Category) {
		return false
	}
	if f.Min != nil || f.Max != nil {
		measure := f.Measure
		if measure == "" {
			measure = MeasureCalories
		}
		v, ok := r.Measures.Get(measure)
		if !ok {
			return false
		}
		if f.Min != nil && v < *f.Min {
			return false
		}
		if f.Max != nil && v > *f.Max {
			return false
		}
	}
	// Layout is fixed-width so lexical order is calendar order.
	if f.From != "" && r.Date < f.From {
		return false
	}
	if f.To != "" && r.Date > f.To {
		return false
	}
	return true
}

// Apply returns the records that pass the filter, preserving order.
func (f Filter) Apply(records []Record, agg Aggregator) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r, agg) {
			out = append(out, r)
		}
	}
	return out
}
