package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Timeout != 1*time.Second {
		t.Errorf("Database.Timeout = %v, want 1s", cfg.Database.Timeout)
	}

	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v, want 15s", cfg.API.Timeout)
	}
	if cfg.API.UserAgent == "" {
		t.Error("API.UserAgent should not be empty")
	}

	// page sizes stay within 8..15 per screen
	for name, size := range map[string]int{
		"recipe":    cfg.Feed.RecipePageSize,
		"blog":      cfg.Feed.BlogPageSize,
		"following": cfg.Feed.FollowingPageSize,
		"search":    cfg.Feed.SearchPageSize,
		"user":      cfg.Feed.UserPageSize,
	} {
		if size < 8 || size > 15 {
			t.Errorf("Feed %s page size = %d, want 8..15", name, size)
		}
	}
	if cfg.Feed.Debounce != 100*time.Millisecond {
		t.Errorf("Feed.Debounce = %v, want 100ms", cfg.Feed.Debounce)
	}

	if cfg.Media.DefaultOpener == "" {
		t.Error("Media.DefaultOpener should not be empty")
	}

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want 'off'", cfg.Log.Level)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.Feed.RecipePageSize != 12 {
		t.Errorf("Feed.RecipePageSize = %d, want 12", cfg.Feed.RecipePageSize)
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "test-config.toml")
	configContent := `
[api]
base_url = "https://crumb.example.com"
timeout = "30s"
user_agent = "test-agent"
rate_limit = 5.0
burst = 2

[database]
path = "/tmp/test.db"
timeout = "10s"
search_index = "/tmp/test.bleve"

[ui.colors]
primary = "#FF0000"
`

	if writeErr := os.WriteFile(configPath, []byte(configContent), 0o644); writeErr != nil {
		t.Fatal(writeErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://crumb.example.com" {
		t.Errorf("API.BaseURL = %s, want 'https://crumb.example.com'", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.API.UserAgent != "test-agent" {
		t.Errorf("API.UserAgent = %s, want 'test-agent'", cfg.API.UserAgent)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %s, want '/tmp/test.db'", cfg.Database.Path)
	}
	if cfg.Database.Timeout != 10*time.Second {
		t.Errorf("Database.Timeout = %v, want 10s", cfg.Database.Timeout)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := defaultConfig()
	cfg.API.BaseURL = "https://api.example.org"
	cfg.Database.Path = "/test/path.db"
	cfg.Feed.BlogPageSize = 14
	cfg.Feed.Debounce = 250 * time.Millisecond
	cfg.Keys.Modifier = "alt"

	savePath := filepath.Join(tmpDir, "saved-config.toml")
	if saveErr := Save(cfg, savePath); saveErr != nil {
		t.Fatalf("Save() error = %v", saveErr)
	}

	if _, statErr := os.Stat(savePath); os.IsNotExist(statErr) {
		t.Fatal("Save() did not create config file")
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("Loaded API.BaseURL = %s, want %s", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.Database.Path != cfg.Database.Path {
		t.Errorf("Loaded Database.Path = %s, want %s", loaded.Database.Path, cfg.Database.Path)
	}
	if loaded.Feed.BlogPageSize != 14 {
		t.Errorf("Loaded Feed.BlogPageSize = %d, want 14", loaded.Feed.BlogPageSize)
	}
	if loaded.Feed.Debounce != 250*time.Millisecond {
		t.Errorf("Loaded Feed.Debounce = %v, want 250ms", loaded.Feed.Debounce)
	}
	if loaded.Keys.Modifier != "alt" {
		t.Errorf("Loaded Keys.Modifier = %s, want alt", loaded.Keys.Modifier)
	}
}

func TestEncodeWritesDurationsAsStrings(t *testing.T) {
	data, err := Encode(defaultConfig())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "timeout = '15s'") && !strings.Contains(out, `timeout = "15s"`) {
		t.Errorf("expected api timeout encoded as a duration string, got:\n%s", out)
	}
	if !strings.Contains(out, "[feed]") {
		t.Errorf("expected [feed] table in output")
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "generated.toml")
	if genErr := GenerateDefaultConfig(configPath); genErr != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", genErr)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}

	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Generated config has Cache.TTL = %v, want 2m", cfg.Cache.TTL)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := expandPath("~/crumb.db"); got != filepath.Join(home, "crumb.db") {
		t.Errorf("expandPath(~/crumb.db) = %s", got)
	}
	if got := expandPath("/tmp/x.db"); got != "/tmp/x.db" {
		t.Errorf("expandPath(/tmp/x.db) = %s", got)
	}
	if got := expandPath(""); got != "" {
		t.Errorf("expandPath(\"\") = %q, want empty", got)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("TestConfig Database.Path = %s, want ':memory:'", cfg.Database.Path)
	}
	if cfg.API.UserAgent != "crumb-test/1.0" {
		t.Errorf("TestConfig API.UserAgent = %s, want 'crumb-test/1.0'", cfg.API.UserAgent)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir(%q) error = %v", prev, err)
		}
	})
}
