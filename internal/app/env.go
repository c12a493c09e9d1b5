package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/api"
	"github.com/blackwell-systems/nutriwatch/internal/config"
	"github.com/blackwell-systems/nutriwatch/internal/fetch"
	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/logging"
	"github.com/blackwell-systems/nutriwatch/internal/output"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/blackwell-systems/nutriwatch/internal/watcher"
	"golang.org/x/sync/errgroup"
)

// env bundles what most commands need after config is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
	food   intake.Aggregator
	water  intake.Aggregator

	// notify surfaces failures without stopping the command.
	notify func(watcher.Alert)
}

// loadEnv reads config, applies output and logging settings and builds the
// API client.
func loadEnv() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	output.SetNoColor(flagNoColor || !output.ShouldColor(cfg.Output.Color, os.Stdout))

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger := logging.Setup(os.Stderr, level)

	strategy, err := intake.StrategyByName(cfg.Aggregation.MergeStrategy)
	if err != nil {
		return nil, fmt.Errorf("config: aggregation.merge_strategy: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		client: &api.Client{
			BaseURL:    cfg.API.BaseURL,
			Token:      cfg.API.Token,
			HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
			PageSize:   cfg.API.PageSize,
			Logger:     logger,
		},
		food: intake.Aggregator{
			Kind:           intake.KindFood,
			Categories:     cfg.Aggregation.MealCategories,
			PreserveCustom: cfg.Aggregation.PreserveCustomCategories,
			Strategy:       strategy,
		},
		water:  intake.Aggregator{Kind: intake.KindWater},
		notify: func(a watcher.Alert) { _ = watcher.Notify(a) },
	}, nil
}

func (e *env) aggregator(kind intake.Kind) intake.Aggregator {
	if kind == intake.KindWater {
		return e.water
	}
	return e.food
}

// loadRecords fetches every log of kind. On failure a notification is sent
// and the returned records are empty, alongside the error.
func (e *env) loadRecords(ctx context.Context, kind intake.Kind) ([]intake.Record, error) {
	loader := fetch.NewLoader(func(ctx context.Context) ([]intake.Record, error) {
		return e.client.ListLogs(ctx, kind)
	})
	loader.Logger = e.logger
	loader.OnError = func(err error) {
		e.notify(watcher.Alert{
			Level:   "warning",
			Title:   fmt.Sprintf("Could not load %s logs", kind),
			Message: err.Error(),
			Time:    time.Now(),
		})
	}

	_, _, err := loader.Load(ctx)
	if err != nil {
		return loader.Current(), fmt.Errorf("loading %s logs: %w", kind, err)
	}
	return loader.Current(), nil
}

// loadAllRecords fetches food and water logs concurrently for the watcher.
func (e *env) loadAllRecords(ctx context.Context) ([]intake.Record, error) {
	var food, water []intake.Record
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		food, err = e.client.ListFoodLogs(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		water, err = e.client.ListWaterLogs(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(food, water...), nil
}

func openDB() (*store.DB, error) {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func parseKind(s string) (intake.Kind, error) {
	switch intake.Kind(s) {
	case intake.KindFood, intake.KindWater:
		return intake.Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q; expected food or water", s)
	}
}
