package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/metrics"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/window"
)

// windowReport is the result of the filter, aggregate, window and compare
// pipeline for one kind of log.
type windowReport struct {
	Kind     intake.Kind             `json:"kind"`
	Window   window.Range            `json:"window"`
	Previous window.Range            `json:"previous_window"`
	Filter   intake.Filter           `json:"filter"`
	Days     []*intake.AggregatedDay `json:"days"`
	Summary  metrics.Summary         `json:"summary"`
}

// buildReport filters records, merges them into days and summarizes the
// window ending today against the window before it.
func buildReport(records []intake.Record, f intake.Filter, agg intake.Aggregator, days int, today time.Time) windowReport {
	all := agg.Aggregate(f.Apply(records, agg))
	current := window.Current(all, days, today)
	previous := window.Previous(all, days, today)

	return windowReport{
		Kind:     agg.Kind,
		Window:   window.CurrentRange(today, days),
		Previous: window.PreviousRange(today, days),
		Filter:   f,
		Days:     current,
		Summary:  metrics.Compare(current, previous),
	}
}

// measureTrend maps measures to whether a rise is shown as favorable.
var measureTrend = map[string]bool{
	intake.MeasureCalories: false,
	intake.MeasureProtein:  true,
	intake.MeasureCarbs:    false,
	intake.MeasureFats:     false,
	intake.MeasureVolumeML: true,
}

var measureLabel = map[string]string{
	intake.MeasureCalories: "Calories (kcal)",
	intake.MeasureProtein:  "Protein (g)",
	intake.MeasureCarbs:    "Carbs (g)",
	intake.MeasureFats:     "Fats (g)",
	intake.MeasureVolumeML: "Water (ml)",
}

func reportMeasures(kind intake.Kind) []string {
	if kind == intake.KindWater {
		return []string{intake.MeasureVolumeML}
	}
	return []string{intake.MeasureCalories, intake.MeasureProtein, intake.MeasureCarbs, intake.MeasureFats}
}

func titleFor(kind intake.Kind) string {
	if kind == intake.KindWater {
		return "Water"
	}
	return "Food"
}

// renderReport writes the day table, bar chart and summary.
func renderReport(w io.Writer, r windowReport, cfg *config.Config) {
	width := cfg.Output.Width - 14
	_, _ = fmt.Fprintln(w, output.Section(fmt.Sprintf("%s: last %d days (%s to %s)", titleFor(r.Kind), r.Window.Days, nextDay(r.Window.From), r.Window.To), width))
	_, _ = fmt.Fprintln(w)

	if len(r.Days) == 0 {
		_, _ = fmt.Fprintln(w, " No entries in this window.")
		return
	}

	chartMeasure, goal := intake.MeasureCalories, cfg.Goals.Calories
	if r.Kind == intake.KindWater {
		chartMeasure, goal = intake.MeasureVolumeML, cfg.Goals.WaterML
	}
	maxValue, _ := r.Summary.Max.Get(chartMeasure)
	maxValue = max(maxValue, goal)

	headers := []string{"Date"}
	for _, m := range reportMeasures(r.Kind) {
		headers = append(headers, measureLabel[m])
	}
	headers = append(headers, "Entries", "")
	tbl := output.NewTable(headers...)
	numeric := make([]int, 0, len(headers))
	for i := 1; i < len(headers)-1; i++ {
		numeric = append(numeric, i)
	}
	tbl.AlignRight(numeric...)

	for _, d := range r.Days {
		row := []string{d.Date}
		for _, m := range reportMeasures(r.Kind) {
			v, _ := d.Totals.Get(m)
			row = append(row, fmt.Sprintf("%.0f", v))
		}
		v, _ := d.Totals.Get(chartMeasure)
		row = append(row, fmt.Sprintf("%d", entryCount(d)), barFor(v, maxValue, goal, r.Kind))
		tbl.AddRow(row...)
	}
	tbl.Fprint(w)

	renderSummary(w, r, goal, width)
}

func renderSummary(w io.Writer, r windowReport, goal float64, width int) {
	_, _ = fmt.Fprintln(w, output.Section("Summary", width))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable("Metric", "Mean", "Min", "Max", "vs previous").AlignRight(1, 2, 3)
	for _, m := range reportMeasures(r.Kind) {
		mean, _ := r.Summary.Mean.Get(m)
		lo, _ := r.Summary.Min.Get(m)
		hi, _ := r.Summary.Max.Get(m)
		trend := output.StyleMuted.Render("n/a")
		if r.Summary.Comparable {
			change, _ := r.Summary.Change.Get(m)
			trend = output.TrendArrowPercent(change, measureTrend[m])
		}
		tbl.AddRow(measureLabel[m], fmt.Sprintf("%.1f", mean), fmt.Sprintf("%.0f", lo), fmt.Sprintf("%.0f", hi), trend)
	}
	tbl.Fprint(w)
	_, _ = fmt.Fprintln(w)

	if r.Kind == intake.KindFood {
		d := r.Summary.Distribution
		_, _ = fmt.Fprintf(w, " Macros: protein %.1f%%, carbs %.1f%%, fats %.1f%%\n", d.Protein, d.Carbs, d.Fats)
	}

	measure := intake.MeasureCalories
	over := true
	if r.Kind == intake.KindWater {
		measure, over = intake.MeasureVolumeML, false
	}
	mean, _ := r.Summary.Mean.Get(measure)
	_, _ = fmt.Fprintf(w, " Daily average vs goal: %s\n", output.GoalBar(mean, goal, 20, over))

	if !r.Summary.Comparable {
		_, _ = fmt.Fprintf(w, " %s\n", output.StyleMuted.Render(fmt.Sprintf(
			"No comparison available: nothing logged %s to %s.", nextDay(r.Previous.From), r.Previous.To)))
	}
}

// renderEntries lists the merged entries behind each day. Favorite entity
// ids are starred.
func renderEntries(w io.Writer, r windowReport, favorites map[string]bool) {
	_, _ = fmt.Fprintln(w, output.Section("Entries", 0))
	_, _ = fmt.Fprintln(w)

	tbl := output.NewTable("Date", "Meal", "Item", "Logs", "kcal", "Rating", "Note").AlignRight(3, 4)
	for _, d := range r.Days {
		for _, e := range d.Entries() {
			name := e.Name
			if favorites[e.EntityID] {
				name = "★ " + name
			}
			value := fmt.Sprintf("%.0f", e.Measures.Calories)
			if r.Kind == intake.KindWater {
				value = fmt.Sprintf("%.0f ml", e.Measures.VolumeML)
			}
			rating := ""
			if e.Rating > 0 {
				rating = strings.Repeat("*", e.Rating)
			}
			tbl.AddRow(d.Date, e.Category, name, fmt.Sprintf("%d", e.Count), value, rating, e.Note)
		}
	}
	tbl.Fprint(w)
}

func barFor(value, maxValue, goal float64, kind intake.Kind) string {
	bar := output.Bar(value, maxValue, 20)
	switch {
	case goal <= 0:
		return output.StyleMuted.Render(bar)
	case kind == intake.KindWater && value >= goal:
		return output.StyleSuccess.Render(bar)
	case kind == intake.KindWater:
		return output.StyleWater.Render(bar)
	case value > goal:
		return output.StyleError.Render(bar)
	default:
		return output.StyleSuccess.Render(bar)
	}
}

func entryCount(d *intake.AggregatedDay) int {
	n := 0
	for _, e := range d.Entries() {
		n += e.Count
	}
	return n
}

// nextDay turns the exclusive lower bound of a Range into the first
// included date.
func nextDay(date string) string {
	t, err := time.Parse(intake.DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, 1).Format(intake.DateLayout)
}
