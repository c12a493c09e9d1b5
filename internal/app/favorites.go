package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/spf13/cobra"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite foods",
	Long: `Favorites are stored in the local database and starred in
'nutriwatch food --entries'. Saved filter drafts are listed here too.`,
	RunE: runFavoritesList,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites and saved filter drafts",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <entity-id> [name...]",
	Short: "Add a food to favorites, or rename it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <entity-id>",
	Short: "Remove a food from favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesRemove,
}

var favoritesDropDraftCmd = &cobra.Command{
	Use:   "drop-draft <name>",
	Short: "Delete a saved filter draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesDropDraft,
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd, favoritesDropDraftCmd)
	rootCmd.AddCommand(favoritesCmd)
}

// openLocal loads config for output settings and opens the database.
// These commands never reach the API.
func openLocal() (*store.DB, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	output.SetNoColor(flagNoColor || !output.ShouldColor(cfg.Output.Color, os.Stdout))
	return openDB()
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	db, err := openLocal()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return listFavorites(cmd.OutOrStdout(), db)
}

func listFavorites(w io.Writer, kv store.KV) error {
	favs, err := store.NewFavorites(kv).List()
	if err != nil {
		return err
	}
	drafts, err := store.NewDrafts(kv).Names()
	if err != nil {
		return fmt.Errorf("listing drafts: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"favorites": favs, "drafts": drafts})
	}

	_, _ = fmt.Fprintln(w, output.Section("Favorites", 0))
	_, _ = fmt.Fprintln(w)
	if len(favs) == 0 {
		_, _ = fmt.Fprintln(w, " No favorites yet. Add one with 'nutriwatch favorites add <entity-id> <name>'.")
	} else {
		tbl := output.NewTable("Entity", "Name", "Added")
		for _, f := range favs {
			tbl.AddRow(f.EntityID, f.Name, f.AddedAt.Local().Format("2006-01-02"))
		}
		tbl.Fprint(w)
	}

	if len(drafts) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, " Saved filters: %s\n", strings.Join(drafts, ", "))
	}
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	db, err := openLocal()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return addFavorite(cmd.OutOrStdout(), db, args[0], strings.Join(args[1:], " "))
}

// addFavorite adds entityID, or renames it when it is already a favorite.
func addFavorite(w io.Writer, kv store.KV, entityID, name string) error {
	entityID = strings.TrimSpace(entityID)
	favs := store.NewFavorites(kv)
	exists, err := favs.Contains(entityID)
	if err != nil {
		return fmt.Errorf("reading favorites: %w", err)
	}
	if err := favs.Add(entityID, name); err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}
	if exists {
		_, _ = fmt.Fprintf(w, "Updated favorite %s.\n", entityID)
	} else {
		_, _ = fmt.Fprintf(w, "Added %s to favorites.\n", entityID)
	}
	return nil
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	db, err := openLocal()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := store.NewFavorites(db).Remove(args[0])
	if err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}
	if !removed {
		return fmt.Errorf("%s is not a favorite", args[0])
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites.\n", args[0])
	return nil
}

func runFavoritesDropDraft(cmd *cobra.Command, args []string) error {
	db, err := openLocal()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.NewDrafts(db).Delete(args[0]); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted draft %s.\n", args[0])
	return nil
}
