package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level nutriwatch configuration.
type Config struct {
	API         API         `mapstructure:"api" json:"api"`
	Window      Window      `mapstructure:"window" json:"window"`
	Aggregation Aggregation `mapstructure:"aggregation" json:"aggregation"`
	Goals       Goals       `mapstructure:"goals" json:"goals"`
	Output      Output      `mapstructure:"output" json:"output"`
	Log         Log         `mapstructure:"log" json:"log"`
}

// API configures the tracking service client.
type API struct {
	BaseURL  string        `mapstructure:"base_url" json:"base_url"`
	Token    string        `mapstructure:"token" json:"token"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
	PageSize int           `mapstructure:"page_size" json:"page_size"`
}

// Window configures the default time window.
type Window struct {
	DefaultDays int `mapstructure:"default_days" json:"default_days"`
}

// Aggregation configures how records are merged into days.
type Aggregation struct {
	MergeStrategy            string   `mapstructure:"merge_strategy" json:"merge_strategy"`
	MealCategories           []string `mapstructure:"meal_categories" json:"meal_categories"`
	PreserveCustomCategories bool     `mapstructure:"preserve_custom_categories" json:"preserve_custom_categories"`
}

// Goals are daily targets.
type Goals struct {
	Calories float64 `mapstructure:"calories" json:"calories"`
	WaterML  float64 `mapstructure:"water_ml" json:"water_ml"`
}

// Output defines output preferences. Color is auto, always or never.
type Output struct {
	Color string `mapstructure:"color" json:"color"`
	Width int    `mapstructure:"width" json:"width"`
}

// Log configures the slog level.
type Log struct {
	Level string `mapstructure:"level" json:"level"`
}

var colorModes = []string{"auto", "always", "never"}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies NUTRIWATCH_* environment overrides and returns a validated
// Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", DefaultAPI.BaseURL)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", DefaultAPI.Timeout)
	v.SetDefault("api.page_size", DefaultAPI.PageSize)
	v.SetDefault("window.default_days", DefaultWindowDays)
	v.SetDefault("aggregation.merge_strategy", DefaultAggregation.MergeStrategy)
	v.SetDefault("aggregation.meal_categories", DefaultAggregation.MealCategories)
	v.SetDefault("aggregation.preserve_custom_categories", false)
	v.SetDefault("goals.calories", DefaultGoals.Calories)
	v.SetDefault("goals.water_ml", DefaultGoals.WaterML)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("log.level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// A missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("config: api.page_size must be positive, got %d", c.API.PageSize)
	}
	if c.Window.DefaultDays < 1 || c.Window.DefaultDays > 365 {
		return fmt.Errorf("config: window.default_days must be between 1 and 365, got %d", c.Window.DefaultDays)
	}
	if c.Output.Color == "" {
		c.Output.Color = DefaultOutput.Color
	}
	if !slices.Contains(colorModes, c.Output.Color) {
		return fmt.Errorf("config: output.color must be one of %s, got %q", strings.Join(colorModes, ", "), c.Output.Color)
	}
	if len(c.Aggregation.MealCategories) == 0 {
		c.Aggregation.MealCategories = DefaultAggregation.MealCategories
	}
	return nil
}

// Redacted returns a copy safe to print, with the token masked.
func (c Config) Redacted() Config {
	if c.API.Token != "" {
		c.API.Token = "********"
	}
	c.Aggregation.MealCategories = slices.Clone(c.Aggregation.MealCategories)
	return c
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
