package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/fakeapi"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	assert.Contains(t, out, "crumb dev")
	assert.Contains(t, out, "Recipes, blogs and events")
	assert.Contains(t, out, "github.com/pders01/crumb")
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "crumb", "config.toml")

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	_, err := os.Stat(configFile)
	assert.NoError(t, err, "config file created")
	assert.Contains(t, out, "Generated default configuration at:")

	cfg, err := config.Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Feed.RecipePageSize, cfg.Feed.RecipePageSize)
}

func TestExpandTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand tilde path", "~/test.db", filepath.Join(home, "test.db")},
		{"absolute path unchanged", "/tmp/test.db", "/tmp/test.db"},
		{"relative path unchanged", "test.db", "test.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandTilde(tt.input))
		})
	}
}

func demoServer(t *testing.T) string {
	t.Helper()
	backend := fakeapi.New()
	seedDemo(backend, time.Now().UTC())
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func demoClient(t *testing.T) (*api.Client, *config.Config) {
	t.Helper()
	cfg := config.TestConfig()
	cfg.API.BaseURL = demoServer(t)
	client, err := api.NewClient(cfg)
	require.NoError(t, err)
	return client, cfg
}

func TestFetchFeed(t *testing.T) {
	client, cfg := demoClient(t)
	ctx := context.Background()

	lines, err := fetchFeed(ctx, client, cfg, "recipes", 1)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "Country sourdough by ada (90 min)", lines[0])

	lines, err = fetchFeed(ctx, client, cfg, "blogs", 1)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestFetchFeedPaging(t *testing.T) {
	client, cfg := demoClient(t)
	cfg.Feed.RecipePageSize = 2

	lines, err := fetchFeed(context.Background(), client, cfg, "recipes", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunday pancakes by ben (20 min)"}, lines)

	lines, err = fetchFeed(context.Background(), client, cfg, "recipes", 3)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFollowingFeedNeedsLogin(t *testing.T) {
	client, cfg := demoClient(t)

	_, err := fetchFeed(context.Background(), client, cfg, "following", 1)
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	resp, err := client.Login(context.Background(), api.LoginRequest{Email: "ada@example.com", Password: "password"})
	require.NoError(t, err)
	client.SetToken(resp.Token)

	lines, err := fetchFeed(context.Background(), client, cfg, "following", 1)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "[recipe] Sunday pancakes"), "newest first, got %q", lines[0])
}

func TestLoginWhoamiLogout(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	url := demoServer(t)
	common := []string{"--server", url, "--db", filepath.Join(tmpDir, "crumb.db"), "--log-level", "off"}

	run := func(input string, args ...string) string {
		var out bytes.Buffer
		rootCmd.SetArgs(append(args, common...))
		rootCmd.SetIn(strings.NewReader(input))
		rootCmd.SetOut(&out)
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	out := run("password\n", "login", "--email", "ada@example.com")
	assert.Contains(t, out, "Signed in as ada")

	out = run("", "whoami")
	assert.Contains(t, out, "ada")

	out = run("", "logout")
	assert.Contains(t, out, "Signed out")

	out = run("", "whoami")
	assert.Contains(t, out, "Not signed in")
}
