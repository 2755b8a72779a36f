package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

type Config struct {
	API       APIConfig       `mapstructure:"api" toml:"api"`
	Database  DatabaseConfig  `mapstructure:"database" toml:"database"`
	Feed      FeedConfig      `mapstructure:"feed" toml:"feed"`
	Cache     CacheConfig     `mapstructure:"cache" toml:"cache"`
	UI        UIConfig        `mapstructure:"ui" toml:"ui"`
	Media     MediaConfig     `mapstructure:"media" toml:"media"`
	Keys      KeyConfig       `mapstructure:"keys" toml:"keys"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" toml:"telemetry"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" toml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" toml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" toml:"user_agent"`
	RateLimit float64       `mapstructure:"rate_limit" toml:"rate_limit"`
	Burst     int           `mapstructure:"burst" toml:"burst"`
	// RequireHTTPS rejects plain http base URLs except for loopback hosts.
	RequireHTTPS bool `mapstructure:"require_https" toml:"require_https"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path" toml:"path"`
	Timeout     time.Duration `mapstructure:"timeout" toml:"timeout"`
	SearchIndex string        `mapstructure:"search_index" toml:"search_index"`
}

// FeedConfig holds per-screen page sizes and the load-more trigger tuning.
type FeedConfig struct {
	RecipePageSize    int           `mapstructure:"recipe_page_size" toml:"recipe_page_size"`
	BlogPageSize      int           `mapstructure:"blog_page_size" toml:"blog_page_size"`
	FollowingPageSize int           `mapstructure:"following_page_size" toml:"following_page_size"`
	SearchPageSize    int           `mapstructure:"search_page_size" toml:"search_page_size"`
	UserPageSize      int           `mapstructure:"user_page_size" toml:"user_page_size"`
	ScrollThreshold   int           `mapstructure:"scroll_threshold" toml:"scroll_threshold"`
	Debounce          time.Duration `mapstructure:"debounce" toml:"debounce"`
	Seed              string        `mapstructure:"seed" toml:"seed"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size" toml:"size"`
	TTL  time.Duration `mapstructure:"ttl" toml:"ttl"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors" toml:"colors"`
	Reader ReaderConfig `mapstructure:"reader" toml:"reader"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary" toml:"primary"`
	Secondary  string `mapstructure:"secondary" toml:"secondary"`
	Accent     string `mapstructure:"accent" toml:"accent"`
	Background string `mapstructure:"background" toml:"background"`
	Surface    string `mapstructure:"surface" toml:"surface"`
	Text       string `mapstructure:"text" toml:"text"`
	Muted      string `mapstructure:"muted" toml:"muted"`
	Error      string `mapstructure:"error" toml:"error"`
	Success    string `mapstructure:"success" toml:"success"`
}

type ReaderConfig struct {
	MaxPreviewLength int `mapstructure:"max_preview_length" toml:"max_preview_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width" toml:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width" toml:"word_wrap_min_width"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin" toml:"darwin"`
	Linux         []string `mapstructure:"linux" toml:"linux"`
	Windows       []string `mapstructure:"windows" toml:"windows"`
	DefaultOpener string   `mapstructure:"default_opener" toml:"default_opener"`
	TempDir       string   `mapstructure:"temp_dir" toml:"temp_dir"`
}

type KeyConfig struct {
	Modifier string `mapstructure:"modifier" toml:"modifier"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

type TelemetryConfig struct {
	SentryDSN   string `mapstructure:"sentry_dsn" toml:"sentry_dsn"`
	Environment string `mapstructure:"environment" toml:"environment"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".crumb.db")
	searchIndexPath := filepath.Join(homeDir, ".crumb", "history.bleve")

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:5000",
			Timeout:   15 * time.Second,
			UserAgent: "crumb/1.0 (https://github.com/pders01/crumb)",
			RateLimit: 20,
			Burst:     10,
		},
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Feed: FeedConfig{
			RecipePageSize:    12,
			BlogPageSize:      10,
			FollowingPageSize: 8,
			SearchPageSize:    15,
			UserPageSize:      9,
			ScrollThreshold:   3,
			Debounce:          100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Size: 512,
			TTL:  2 * time.Minute,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#E76F51",
				Secondary:  "#2A9D8F",
				Accent:     "#E9C46A",
				Background: "#1D1A17",
				Surface:    "#2B2622",
				Text:       "#F4EFE9",
				Muted:      "#A89F94",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Reader: ReaderConfig{
				MaxPreviewLength: 120,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Media: MediaConfig{
			Darwin:        []string{"preview", "open"},
			Linux:         []string{"sxiv", "feh", "eog", "xdg-open"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".crumb", "crumb.log"),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("api", cfg.API)
	v.SetDefault("database", cfg.Database)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("media", cfg.Media)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("telemetry", cfg.Telemetry)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "crumb")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CRUMB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Media.TempDir = expandPath(cfg.Media.TempDir)
}

// Encode renders the config as TOML with durations as strings.
func Encode(config *Config) ([]byte, error) {
	doc := map[string]any{
		"api": map[string]any{
			"base_url":      config.API.BaseURL,
			"timeout":       config.API.Timeout.String(),
			"user_agent":    config.API.UserAgent,
			"rate_limit":    config.API.RateLimit,
			"burst":         config.API.Burst,
			"require_https": config.API.RequireHTTPS,
		},
		"database": map[string]any{
			"path":         config.Database.Path,
			"timeout":      config.Database.Timeout.String(),
			"search_index": config.Database.SearchIndex,
		},
		"feed": map[string]any{
			"recipe_page_size":    config.Feed.RecipePageSize,
			"blog_page_size":      config.Feed.BlogPageSize,
			"following_page_size": config.Feed.FollowingPageSize,
			"search_page_size":    config.Feed.SearchPageSize,
			"user_page_size":      config.Feed.UserPageSize,
			"scroll_threshold":    config.Feed.ScrollThreshold,
			"debounce":            config.Feed.Debounce.String(),
			"seed":                config.Feed.Seed,
		},
		"cache": map[string]any{
			"size": config.Cache.Size,
			"ttl":  config.Cache.TTL.String(),
		},
		"ui":        config.UI,
		"media":     config.Media,
		"keys":      config.Keys,
		"log":       config.Log,
		"telemetry": config.Telemetry,
	}
	return toml.Marshal(doc)
}

func Save(config *Config, path string) error {
	data, err := Encode(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
