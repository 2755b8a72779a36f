package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://127.0.0.1:0",
			Timeout:   5 * time.Second,
			UserAgent: "crumb-test/1.0",
			RateLimit: 0, // unlimited
			Burst:     1,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Feed: FeedConfig{
			RecipePageSize:    10,
			BlogPageSize:      10,
			FollowingPageSize: 8,
			SearchPageSize:    10,
			UserPageSize:      10,
			ScrollThreshold:   3,
			Debounce:          10 * time.Millisecond,
		},
		Cache: CacheConfig{
			Size: 64,
			TTL:  time.Minute,
		},
		UI:    defaultConfig().UI,
		Media: defaultConfig().Media,
		Keys:  defaultConfig().Keys,
		Log:   LogConfig{Level: "off"},
	}
}
