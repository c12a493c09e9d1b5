package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/fetch"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	deleteKind     string
	deleteCategory string
	deleteEntity   string
	deleteName     string
	deleteDryRun   bool
	deleteParallel int
)

var deleteCmd = &cobra.Command{
	Use:   "delete <date>",
	Short: "Delete every log behind a merged entry",
	Long: `Delete the logs that make up one or more merged entries of a day. A
merged entry can stand for several logs; each one is deleted with its own
request. Every request runs to completion even if others fail, and logs
already deleted stay deleted.

Examples:
  nutriwatch delete 2024-03-10 --category lunch --entity 42
  nutriwatch delete 2024-03-10 --name "Greek yogurt" --dry-run
  nutriwatch delete 2024-03-10 --kind water`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteKind, "kind", "food", "Log kind: food or water")
	deleteCmd.Flags().StringVar(&deleteCategory, "category", "", "Only entries in this meal")
	deleteCmd.Flags().StringVar(&deleteEntity, "entity", "", "Only entries for this food id")
	deleteCmd.Flags().StringVar(&deleteName, "name", "", "Only entries with this name (case-insensitive)")
	deleteCmd.Flags().BoolVar(&deleteDryRun, "dry-run", false, "Show what would be deleted without deleting")
	deleteCmd.Flags().IntVar(&deleteParallel, "parallel", 4, "Maximum concurrent delete requests")
	rootCmd.AddCommand(deleteCmd)
}

// entrySelector picks merged entries of one day.
type entrySelector struct {
	Category string
	EntityID string
	Name     string
}

// selectEntries returns the entries of day matching sel. Empty selector
// fields match everything.
func selectEntries(day *intake.AggregatedDay, sel entrySelector, agg intake.Aggregator) []*intake.MergedEntry {
	var out []*intake.MergedEntry
	for _, e := range day.Entries() {
		if sel.Category != "" && e.Category != agg.Category(sel.Category) {
			continue
		}
		if sel.EntityID != "" && e.EntityID != sel.EntityID {
			continue
		}
		if sel.Name != "" && !strings.EqualFold(e.Name, strings.TrimSpace(sel.Name)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

type logDeleter interface {
	DeleteLog(ctx context.Context, kind intake.Kind, id string) error
}

// deleteFunc deletes one log. A log the service no longer has counts as
// deleted, so a partial delete can be re-run.
func deleteFunc(client logDeleter, logger *slog.Logger, kind intake.Kind) func(context.Context, string) error {
	return func(ctx context.Context, id string) error {
		err := client.DeleteLog(ctx, kind, id)
		switch {
		case api.IsNotFound(err):
			logger.Debug("already deleted", "kind", kind, "id", id)
			return nil
		case err != nil:
			logger.Warn("delete failed", "kind", kind, "id", id, "error", err)
			return err
		}
		logger.Debug("deleted", "kind", kind, "id", id)
		return nil
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(deleteKind)
	if err != nil {
		return err
	}
	date := strings.TrimSpace(args[0])
	if _, err := time.Parse(intake.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q; expected YYYY-MM-DD", date)
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	records, err := e.loadRecords(ctx, kind)
	if err != nil {
		return err
	}

	agg := e.aggregator(kind)
	day, ok := agg.Aggregate(records)[date]
	if !ok {
		return fmt.Errorf("no %s logs on %s", kind, date)
	}
	entries := selectEntries(day, entrySelector{Category: deleteCategory, EntityID: deleteEntity, Name: deleteName}, agg)
	if len(entries) == 0 {
		return fmt.Errorf("no entries on %s match the given filters", date)
	}

	var ids []string
	for _, en := range entries {
		ids = append(ids, en.RecordIDs...)
	}

	out := cmd.OutOrStdout()
	if deleteDryRun {
		tbl := output.NewTable("Meal", "Item", "Logs", "Record IDs").AlignRight(2)
		for _, en := range entries {
			tbl.AddRow(en.Category, en.Name, fmt.Sprintf("%d", en.Count), strings.Join(en.RecordIDs, ", "))
		}
		tbl.Fprint(out)
		_, _ = fmt.Fprintf(out, "\nWould delete %d log(s). Run again without --dry-run to delete.\n", len(ids))
		return nil
	}

	report := fetch.DeleteAll(ctx, ids, deleteFunc(e.client, e.logger, kind), deleteParallel)

	if flagJSON {
		failed := make(map[string]string, len(report.Failed))
		for id, err := range report.Failed {
			failed[id] = err.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"deleted": report.Deleted,
			"failed":  failed,
			"message": report.Message(),
		}); err != nil {
			return err
		}
	} else if report.OK() {
		_, _ = fmt.Fprintln(out, output.StyleSuccess.Render(report.Message()))
	} else {
		_, _ = fmt.Fprintln(out, output.StyleError.Render(report.Message()))
	}

	if !report.OK() {
		e.notify(watcher.Alert{
			Level:   "warning",
			Title:   "Delete incomplete",
			Message: report.Message(),
			Time:    time.Now(),
		})
		return errors.New("some logs could not be deleted")
	}
	return nil
}
