package app

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/metrics"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	trackKind    string
	trackDays    string
	trackWindow  int
	trackCompare int
	trackHistory int
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot window metrics and compare over time",
	Long: `Summarize the current window, store the summary as a snapshot in the
local database, and compare it against an earlier snapshot with trend
arrows. Use --history to see how metrics moved across recent snapshots.

Examples:
  nutriwatch track                 # snapshot food and water, compare with last run
  nutriwatch track --kind food --window 30
  nutriwatch track --compare 3     # compare against the 3rd most recent snapshot
  nutriwatch track --history 5     # timeline of the 5 most recent snapshots`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackKind, "kind", "all", "Which logs to track: food, water or all")
	trackCmd.Flags().StringVar(&trackDays, "days", "", "Custom window length in days (1-365)")
	trackCmd.Flags().IntVar(&trackWindow, "window", 0, "Preset window: 7, 30, 90, 180 or 365")
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous snapshot (1 = most recent)")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show metric trends across N most recent snapshots instead")
	rootCmd.AddCommand(trackCmd)
}

// metricDelta is the change of one snapshot metric between two snapshots.
type metricDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	ChangePct float64 `json:"change_pct"`
	Direction string  `json:"direction"`
}

// trackResult is the outcome of one kind's snapshot.
type trackResult struct {
	Snapshot *store.Snapshot `json:"snapshot"`
	Previous *store.Snapshot `json:"previous,omitempty"`
	Deltas   []metricDelta   `json:"deltas,omitempty"`
}

// metricOrder lists snapshot metrics per kind in display order.
var metricOrder = map[intake.Kind][]string{
	intake.KindFood: {
		"days_logged", "mean_calories", "min_calories", "max_calories",
		"mean_protein", "mean_carbs", "mean_fats", "protein_pct", "carbs_pct", "fats_pct",
	},
	intake.KindWater: {"days_logged", "mean_volume_ml", "min_volume_ml", "max_volume_ml"},
}

// metricDirection maps metric names to whether higher values are better.
var metricDirection = map[string]bool{
	"days_logged":    true,
	"mean_calories":  false,
	"min_calories":   false,
	"max_calories":   false,
	"mean_protein":   true,
	"mean_carbs":     false,
	"mean_fats":      false,
	"protein_pct":    true,
	"carbs_pct":      false,
	"fats_pct":       false,
	"mean_volume_ml": true,
	"min_volume_ml":  true,
	"max_volume_ml":  true,
}

// snapshotMetrics flattens a summary into named snapshot metrics.
func snapshotMetrics(kind intake.Kind, s metrics.Summary) map[string]float64 {
	if kind == intake.KindWater {
		return map[string]float64{
			"days_logged":    float64(s.Days),
			"mean_volume_ml": metrics.Round1(s.Mean.VolumeML),
			"min_volume_ml":  s.Min.VolumeML,
			"max_volume_ml":  s.Max.VolumeML,
		}
	}
	return map[string]float64{
		"days_logged":   float64(s.Days),
		"mean_calories": metrics.Round1(s.Mean.Calories),
		"min_calories":  s.Min.Calories,
		"max_calories":  s.Max.Calories,
		"mean_protein":  metrics.Round1(s.Mean.Protein),
		"mean_carbs":    metrics.Round1(s.Mean.Carbs),
		"mean_fats":     metrics.Round1(s.Mean.Fats),
		"protein_pct":   metrics.Round1(s.Distribution.Protein),
		"carbs_pct":     metrics.Round1(s.Distribution.Carbs),
		"fats_pct":      metrics.Round1(s.Distribution.Fats),
	}
}

// computeDeltas compares two snapshot metric sets in display order.
func computeDeltas(kind intake.Kind, prev, curr map[string]float64) []metricDelta {
	var deltas []metricDelta
	for _, name := range metricOrder[kind] {
		c, ok := curr[name]
		if !ok {
			continue
		}
		p := prev[name]

		direction := "unchanged"
		if c != p {
			if (c > p) == metricDirection[name] {
				direction = "improved"
			} else {
				direction = "regressed"
			}
		}
		deltas = append(deltas, metricDelta{
			Name:      name,
			Previous:  p,
			Current:   c,
			ChangePct: metrics.PercentChange(c, p),
			Direction: direction,
		})
	}
	return deltas
}

func trackKinds(s string) ([]intake.Kind, error) {
	if s == "all" || s == "" {
		return []intake.Kind{intake.KindFood, intake.KindWater}, nil
	}
	k, err := parseKind(s)
	if err != nil {
		return nil, err
	}
	return []intake.Kind{k}, nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	kinds, err := trackKinds(trackKind)
	if err != nil {
		return err
	}
	days, err := resolveWindow(cmd, trackDays, trackWindow)
	if err != nil {
		return err
	}
	if trackCompare < 1 {
		return fmt.Errorf("--compare must be at least 1")
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	if days == 0 {
		days = e.cfg.Window.DefaultDays
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	out := cmd.OutOrStdout()
	if trackHistory > 0 {
		return renderHistory(out, db, kinds, trackHistory)
	}

	results := make(map[intake.Kind]trackResult, len(kinds))
	for _, kind := range kinds {
		// A failed fetch must not be recorded as an empty window.
		records, err := e.loadRecords(cmd.Context(), kind)
		if err != nil {
			return err
		}
		report := buildReport(records, intake.Filter{}, e.aggregator(kind), days, time.Now())

		res, err := recordSnapshot(db, kind, days, snapshotMetrics(kind, report.Summary), trackCompare)
		if err != nil {
			return err
		}
		e.logger.Debug("snapshot recorded", "kind", kind, "id", res.Snapshot.ID, "window_days", days)
		results[kind] = res
	}

	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, kind := range kinds {
		renderTrackOutput(out, kind, results[kind])
	}
	return nil
}

// recordSnapshot stores values as a new snapshot of kind and diffs it
// against the compare-th earlier snapshot.
func recordSnapshot(db *store.DB, kind intake.Kind, days int, values map[string]float64, compare int) (trackResult, error) {
	id, err := db.CreateSnapshot(string(kind), days, appVersion)
	if err != nil {
		return trackResult{}, fmt.Errorf("creating snapshot: %w", err)
	}
	for name, v := range values {
		if err := db.InsertSnapshotMetric(id, name, v); err != nil {
			return trackResult{}, fmt.Errorf("inserting metric %s: %w", name, err)
		}
	}

	current, err := db.GetSnapshotN(string(kind), 1)
	if err != nil {
		return trackResult{}, fmt.Errorf("loading current snapshot: %w", err)
	}
	res := trackResult{Snapshot: current}

	// compare=1 is the snapshot right before the one just taken.
	prev, err := db.GetSnapshotN(string(kind), compare+1)
	if err != nil {
		return trackResult{}, fmt.Errorf("loading previous snapshot: %w", err)
	}
	if prev == nil {
		return res, nil
	}
	prevValues, err := db.GetSnapshotMetrics(prev.ID)
	if err != nil {
		return trackResult{}, fmt.Errorf("loading previous metrics: %w", err)
	}
	res.Previous = prev
	res.Deltas = computeDeltas(kind, prevValues, values)
	return res, nil
}

func renderTrackOutput(w io.Writer, kind intake.Kind, res trackResult) {
	_, _ = fmt.Fprintln(w, output.Section(fmt.Sprintf("Track: %s", titleFor(kind)), 0))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, " Snapshot #%d taken at %s (%d-day window)\n\n",
		res.Snapshot.ID, res.Snapshot.TakenAt.Local().Format("2006-01-02 15:04:05"), res.Snapshot.WindowDays)

	if res.Previous == nil {
		_, _ = fmt.Fprintln(w, " First snapshot recorded. Run 'nutriwatch track' again later to see trends.")
		_, _ = fmt.Fprintln(w)
		return
	}

	_, _ = fmt.Fprintf(w, " Comparing against snapshot #%d (%s)",
		res.Previous.ID, res.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"))
	if res.Previous.WindowDays != res.Snapshot.WindowDays {
		_, _ = fmt.Fprintf(w, ", %s", output.StyleWarning.Render(fmt.Sprintf("window was %d days", res.Previous.WindowDays)))
	}
	_, _ = fmt.Fprint(w, "\n\n")

	tbl := output.NewTable("Metric", "Previous", "Current", "Trend").AlignRight(1, 2)
	for _, d := range res.Deltas {
		tbl.AddRow(d.Name, fmt.Sprintf("%.1f", d.Previous), fmt.Sprintf("%.1f", d.Current),
			output.TrendArrowPercent(d.ChangePct, metricDirection[d.Name]))
	}
	tbl.Fprint(w)
	_, _ = fmt.Fprintln(w)
}

// historyEntry is one snapshot with its metrics.
type historyEntry struct {
	Snapshot store.Snapshot     `json:"snapshot"`
	Metrics  map[string]float64 `json:"metrics"`
}

func loadHistory(db *store.DB, kind intake.Kind, n int) ([]historyEntry, error) {
	snapshots, err := db.ListSnapshots(string(kind), n)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	// Oldest first.
	slices.Reverse(snapshots)

	entries := make([]historyEntry, 0, len(snapshots))
	for _, s := range snapshots {
		m, err := db.GetSnapshotMetrics(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for snapshot #%d: %w", s.ID, err)
		}
		entries = append(entries, historyEntry{Snapshot: s, Metrics: m})
	}
	return entries, nil
}

// renderHistory shows a multi-snapshot timeline table per kind.
func renderHistory(w io.Writer, db *store.DB, kinds []intake.Kind, n int) error {
	all := make(map[intake.Kind][]historyEntry, len(kinds))
	for _, kind := range kinds {
		entries, err := loadHistory(db, kind, n)
		if err != nil {
			return err
		}
		all[kind] = entries
	}

	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"history": all})
	}

	for _, kind := range kinds {
		timeline := all[kind]
		_, _ = fmt.Fprintln(w, output.Section(fmt.Sprintf("Track: %s History", titleFor(kind)), 0))
		_, _ = fmt.Fprintln(w)
		if len(timeline) == 0 {
			_, _ = fmt.Fprintln(w, " No snapshots found. Run 'nutriwatch track' to create one.")
			_, _ = fmt.Fprintln(w)
			continue
		}

		headers := []string{"Metric"}
		for _, h := range timeline {
			headers = append(headers, fmt.Sprintf("#%d %s", h.Snapshot.ID, h.Snapshot.TakenAt.Local().Format("Jan 02")))
		}
		headers = append(headers, "Trend")
		tbl := output.NewTable(headers...)

		for _, name := range metricOrder[kind] {
			row := []string{name}
			for _, h := range timeline {
				row = append(row, fmt.Sprintf("%.1f", h.Metrics[name]))
			}
			trend := ""
			if len(timeline) >= 2 {
				first := timeline[0].Metrics[name]
				last := timeline[len(timeline)-1].Metrics[name]
				trend = output.TrendArrowPercent(metrics.PercentChange(last, first), metricDirection[name])
			}
			tbl.AddRow(append(row, trend)...)
		}
		tbl.Fprint(w)
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
