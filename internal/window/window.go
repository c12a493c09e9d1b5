// Package window selects the aggregated days that fall inside a lookback
// period and validates user-supplied window lengths.
package window

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
)

// Bounds for a custom window length, in days.
const (
	MinDays = 1
	MaxDays = 365
)

// Presets are the discrete window lengths offered to the user.
var Presets = []int{7, 30, 90, 180, 365}

// ErrInvalidWindow is wrapped by every window validation failure.
var ErrInvalidWindow = errors.New("invalid window")

// Range describes the calendar span of a window. From is exclusive and To
// is inclusive, matching the selection rule of Current.
type Range struct {
	Days int    `json:"days"`
	From string `json:"after"`
	To   string `json:"through"`
}

// ParseDays validates a custom window length entered by the user.
func ParseDays(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: enter a number of days between %d and %d", ErrInvalidWindow, MinDays, MaxDays)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number of days", ErrInvalidWindow, s)
	}
	if err := Validate(n); err != nil {
		return 0, err
	}
	return n, nil
}

// Validate checks that days is within the supported range.
func Validate(days int) error {
	if days < MinDays || days > MaxDays {
		return fmt.Errorf("%w: %d days is outside the range %d-%d", ErrInvalidWindow, days, MinDays, MaxDays)
	}
	return nil
}

// IsPreset reports whether days is one of the discrete presets.
func IsPreset(days int) bool {
	for _, p := range Presets {
		if p == days {
			return true
		}
	}
	return false
}

// Cutoff returns the start of the calendar day that lies days before today.
func Cutoff(today time.Time, days int) time.Time {
	y, m, d := today.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, today.Location()).AddDate(0, 0, -days)
}

// CurrentRange describes the window selected by Current.
func CurrentRange(today time.Time, days int) Range {
	return Range{
		Days: days,
		From: Cutoff(today, days).Format(intake.DateLayout),
		To:   Cutoff(today, 0).Format(intake.DateLayout),
	}
}

// PreviousRange describes the window selected by Previous.
func PreviousRange(today time.Time, days int) Range {
	return Range{
		Days: days,
		From: Cutoff(today, 2*days).Format(intake.DateLayout),
		To:   Cutoff(today, days).Format(intake.DateLayout),
	}
}

// Current returns the days dated strictly after today minus days, oldest
// first.
func Current(all map[string]*intake.AggregatedDay, days int, today time.Time) []*intake.AggregatedDay {
	cutoff := Cutoff(today, days)
	return selectDays(all, func(t time.Time) bool {
		return t.After(cutoff)
	}, today.Location())
}

// Previous returns the window of equal length immediately preceding the
// current one: dates after today minus 2*days up to and including the
// current cutoff. It never overlaps Current.
func Previous(all map[string]*intake.AggregatedDay, days int, today time.Time) []*intake.AggregatedDay {
	start := Cutoff(today, 2*days)
	end := Cutoff(today, days)
	return selectDays(all, func(t time.Time) bool {
		return t.After(start) && !t.After(end)
	}, today.Location())
}

func selectDays(all map[string]*intake.AggregatedDay, keep func(time.Time) bool, loc *time.Location) []*intake.AggregatedDay {
	out := make([]*intake.AggregatedDay, 0)
	for _, d := range all {
		t, err := d.Time(loc)
		if err != nil {
			continue
		}
		if keep(t) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}
