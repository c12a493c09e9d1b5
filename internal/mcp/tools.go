package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/nutriwatch/internal/intake"
	"github.com/blackwell-systems/nutriwatch/internal/metrics"
	"github.com/blackwell-systems/nutriwatch/internal/store"
	"github.com/blackwell-systems/nutriwatch/internal/window"
)

// TodayResult holds today's totals against the configured goals.
type TodayResult struct {
	Date             string          `json:"date"`
	Food             intake.Measures `json:"food"`
	FoodEntries      int             `json:"food_entries"`
	WaterML          float64         `json:"water_ml"`
	CalorieGoal      float64         `json:"calorie_goal"`
	CaloriesLeft     float64         `json:"calories_remaining"`
	OverCalorieGoal  bool            `json:"over_calorie_goal"`
	WaterGoalML      float64         `json:"water_goal_ml"`
	WaterGoalReached bool            `json:"water_goal_reached"`
}

// WindowResult holds summary statistics for one kind over a window.
type WindowResult struct {
	Kind     intake.Kind     `json:"kind"`
	Window   window.Range    `json:"window"`
	Previous window.Range    `json:"previous_window"`
	Summary  metrics.Summary `json:"summary"`
}

// DayResult holds the merged entries of one day.
type DayResult struct {
	Kind    intake.Kind           `json:"kind"`
	Date    string                `json:"date"`
	Totals  intake.Measures       `json:"totals"`
	Entries []*intake.MergedEntry `json:"entries"`
}

// FavoritesResult lists favorite foods.
type FavoritesResult struct {
	Favorites []store.Favorite `json:"favorites"`
}

var (
	noArgsSchema   = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	windowSchema   = json.RawMessage(`{"type":"object","properties":{"kind":{"type":"string","enum":["food","water"],"description":"Log kind (default food)"},"days":{"type":"integer","minimum":1,"maximum":365,"description":"Window length in days"}},"additionalProperties":false}`)
	daySchema      = json.RawMessage(`{"type":"object","properties":{"kind":{"type":"string","enum":["food","water"],"description":"Log kind (default food)"},"date":{"type":"string","description":"Day as YYYY-MM-DD (default today)"}},"additionalProperties":false}`)
	errNoFavorites = errors.New("favorites are not available")
)

func (s *Server) addTools() {
	s.register(tool{
		Name:        "get_today",
		Description: "Today's calories, macros and water against the configured goals.",
		InputSchema: noArgsSchema,
		Handler:     s.handleGetToday,
	})
	s.register(tool{
		Name:        "get_window_summary",
		Description: "Mean, min and max daily totals over the last N days, with percent change versus the N days before.",
		InputSchema: windowSchema,
		Handler:     s.handleGetWindowSummary,
	})
	s.register(tool{
		Name:        "get_day",
		Description: "Merged food or water entries of one day.",
		InputSchema: daySchema,
		Handler:     s.handleGetDay,
	})
	s.register(tool{
		Name:        "list_favorites",
		Description: "Foods the user marked as favorites.",
		InputSchema: noArgsSchema,
		Handler:     s.handleListFavorites,
	})
}

func (s *Server) aggregator(kind intake.Kind) intake.Aggregator {
	if kind == intake.KindWater {
		return s.opts.Water
	}
	return s.opts.Food
}

func (s *Server) aggregate(ctx context.Context, kind intake.Kind) (map[string]*intake.AggregatedDay, error) {
	records, err := s.src.ListLogs(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("loading %s logs: %w", kind, err)
	}
	return s.aggregator(kind).Aggregate(records), nil
}

func parseKind(raw string) (intake.Kind, error) {
	switch intake.Kind(raw) {
	case "", intake.KindFood:
		return intake.KindFood, nil
	case intake.KindWater:
		return intake.KindWater, nil
	default:
		return "", fmt.Errorf("unknown kind %q; expected food or water", raw)
	}
}

func (s *Server) handleGetToday(ctx context.Context, _ json.RawMessage) (any, error) {
	now := s.opts.Now()
	date := now.Format(intake.DateLayout)

	food, err := s.aggregate(ctx, intake.KindFood)
	if err != nil {
		return nil, err
	}
	water, err := s.aggregate(ctx, intake.KindWater)
	if err != nil {
		return nil, err
	}

	res := TodayResult{
		Date:        date,
		CalorieGoal: s.opts.CalorieGoal,
		WaterGoalML: s.opts.WaterGoalML,
	}
	if d, ok := food[date]; ok {
		res.Food = d.Totals
		res.FoodEntries = len(d.Entries())
	}
	if d, ok := water[date]; ok {
		res.WaterML = d.Totals.VolumeML
	}
	if res.CalorieGoal > 0 {
		res.CaloriesLeft = metrics.Round1(res.CalorieGoal - res.Food.Calories)
		res.OverCalorieGoal = res.Food.Calories > res.CalorieGoal
	}
	if res.WaterGoalML > 0 {
		res.WaterGoalReached = res.WaterML >= res.WaterGoalML
	}
	return res, nil
}

func (s *Server) handleGetWindowSummary(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Kind string `json:"kind"`
		Days *int   `json:"days"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	kind, err := parseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	days := s.opts.DefaultDays
	if params.Days != nil {
		days = *params.Days
	}
	if err := window.Validate(days); err != nil {
		return nil, err
	}

	all, err := s.aggregate(ctx, kind)
	if err != nil {
		return nil, err
	}
	today := s.opts.Now()
	return WindowResult{
		Kind:     kind,
		Window:   window.CurrentRange(today, days),
		Previous: window.PreviousRange(today, days),
		Summary:  metrics.Compare(window.Current(all, days, today), window.Previous(all, days, today)),
	}, nil
}

func (s *Server) handleGetDay(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Kind string `json:"kind"`
		Date string `json:"date"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	kind, err := parseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	date := params.Date
	if date == "" {
		date = s.opts.Now().Format(intake.DateLayout)
	} else if _, err := time.Parse(intake.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", date)
	}

	all, err := s.aggregate(ctx, kind)
	if err != nil {
		return nil, err
	}
	res := DayResult{Kind: kind, Date: date, Entries: make([]*intake.MergedEntry, 0)}
	if d, ok := all[date]; ok {
		res.Totals = d.Totals
		res.Entries = d.Entries()
	}
	return res, nil
}

func (s *Server) handleListFavorites(_ context.Context, _ json.RawMessage) (any, error) {
	if s.opts.Favorites == nil {
		return nil, errNoFavorites
	}
	favs, err := store.NewFavorites(s.opts.Favorites).List()
	if err != nil {
		return nil, err
	}
	return FavoritesResult{Favorites: favs}, nil
}
