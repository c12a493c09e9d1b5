// Package metrics computes summary statistics over aggregated intake days.
package metrics

import (
	"math"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
)

// Summary holds derived statistics for a window of days.
type Summary struct {
	// Days is the number of aggregated days included.
	Days int `json:"days"`

	// Mean is the per-measure average of the daily totals.
	Mean intake.Measures `json:"mean"`

	// Max and Min are the per-measure extremes of the daily totals.
	Max intake.Measures `json:"max"`
	Min intake.Measures `json:"min"`

	// Change is the percent change of each mean versus the previous window.
	Change intake.Measures `json:"change_pct"`

	// Distribution is the macro share of the mean gram intake.
	Distribution Distribution `json:"distribution"`

	// Comparable is false when the previous window held no days, in which
	// case every Change is zero.
	Comparable bool `json:"comparable"`
}

// Distribution is each macro's percentage of total macro grams.
type Distribution struct {
	Protein float64 `json:"protein_pct"`
	Carbs   float64 `json:"carbs_pct"`
	Fats    float64 `json:"fats_pct"`
}

// Summarize computes mean, max and min for every measure. An empty input
// yields an all-zero summary.
func Summarize(days []*intake.AggregatedDay) Summary {
	s := Summary{Days: len(days)}
	if len(days) == 0 {
		return s
	}

	var total intake.Measures
	for i, d := range days {
		total = total.Add(d.Totals)
		for _, name := range intake.MeasureNames {
			v, _ := d.Totals.Get(name)
			maxV, _ := s.Max.Get(name)
			minV, _ := s.Min.Get(name)
			if i == 0 || v > maxV {
				s.Max.Set(name, v)
			}
			if i == 0 || v < minV {
				s.Min.Set(name, v)
			}
		}
	}

	n := float64(len(days))
	for _, name := range intake.MeasureNames {
		v, _ := total.Get(name)
		s.Mean.Set(name, v/n)
	}
	s.Distribution = Distribute(s.Mean)
	return s
}

// Compare summarizes current and fills Change against the previous window.
func Compare(current, previous []*intake.AggregatedDay) Summary {
	s := Summarize(current)
	if len(previous) == 0 {
		return s
	}
	prev := Summarize(previous)
	s.Comparable = true
	for _, name := range intake.MeasureNames {
		c, _ := s.Mean.Get(name)
		p, _ := prev.Mean.Get(name)
		s.Change.Set(name, PercentChange(c, p))
	}
	return s
}

// PercentChange returns (current-previous)/previous*100 rounded to one
// decimal place. A zero previous value yields zero.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return Round1((current - previous) / previous * 100)
}

// Share returns part as a percentage of total, or zero when total is zero.
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Distribute computes the macro distribution of m.
func Distribute(m intake.Measures) Distribution {
	total := m.Protein + m.Carbs + m.Fats
	return Distribution{
		Protein: Share(m.Protein, total),
		Carbs:   Share(m.Carbs, total),
		Fats:    Share(m.Fats, total),
	}
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
