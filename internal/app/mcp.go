package app

import (
	"os"

	"github.com/blackwell-systems/nutriwatch/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpNoFavorites bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing your nutrition data",
	Long: `Start a Model Context Protocol server on stdin/stdout so an assistant
can read your logs. The server exposes four tools:

  get_today            Today's calories, macros and water vs goals
  get_window_summary   Mean, min and max over the last N days with trends
  get_day              Merged entries of one day
  list_favorites       Foods marked as favorites

Register it with an MCP client as:
  {"mcpServers":{"nutriwatch":{"command":"nutriwatch","args":["mcp"]}}}

Logs go to stderr so they never mix with protocol messages.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpNoFavorites, "no-favorites", false, "Do not open the local database")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}

	opts := mcp.Options{
		Food:        e.food,
		Water:       e.water,
		CalorieGoal: e.cfg.Goals.Calories,
		WaterGoalML: e.cfg.Goals.WaterML,
		DefaultDays: e.cfg.Window.DefaultDays,
		Version:     appVersion,
		Logger:      e.logger,
	}
	if !mcpNoFavorites {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		opts.Favorites = db
	}

	return mcp.NewServer(e.client, opts).Run(cmd.Context(), os.Stdin, os.Stdout)
}
