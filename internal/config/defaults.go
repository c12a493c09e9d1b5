// Package config provides configuration loading and defaults for nutriwatch.
package config

import "time"

// DefaultConfigDir is the default location for nutriwatch configuration.
const DefaultConfigDir = "~/.config/nutriwatch"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "nutriwatch.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. NUTRIWATCH_API_TOKEN.
const EnvPrefix = "NUTRIWATCH"

// DefaultAPI holds the default service connection settings.
var DefaultAPI = API{
	BaseURL:  "http://localhost:8000",
	Timeout:  15 * time.Second,
	PageSize: 100,
}

// DefaultWindowDays is the window used when no --days flag is given.
const DefaultWindowDays = 7

// DefaultAggregation holds the default merge settings.
var DefaultAggregation = Aggregation{
	MergeStrategy:  "last-write-wins",
	MealCategories: []string{"Breakfast", "Lunch", "Dinner", "Snack"},
}

// DefaultGoals are daily targets used by charts and watcher alerts.
var DefaultGoals = Goals{
	Calories: 2000,
	WaterML:  2000,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: "auto",
	Width: 80,
}

// DefaultLogLevel is the slog level name used unless --verbose is set.
const DefaultLogLevel = "warn"
