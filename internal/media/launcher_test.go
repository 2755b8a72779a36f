package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/crumb/internal/config"
)

func installed(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func testRegistry(t *testing.T) *ViewerRegistry {
	t.Helper()
	r, err := NewViewerRegistry()
	require.NoError(t, err)
	return r
}

func TestLauncherPicksFirstInstalledViewer(t *testing.T) {
	cfg := config.MediaConfig{Linux: []string{"sxiv", "feh", "xdg-open"}, DefaultOpener: "xdg-open"}

	l := newLauncher(cfg, "linux", testRegistry(t), installed("feh", "xdg-open"))
	assert.Equal(t, "feh", l.Viewer())

	cmd, err := l.Command("/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"feh", "--scale-down", "--auto-zoom", "/tmp/a.png"}, cmd.Args)
}

func TestLauncherFallsBackToDefaultOpener(t *testing.T) {
	cfg := config.MediaConfig{Linux: []string{"sxiv"}, DefaultOpener: "xdg-open"}
	l := newLauncher(cfg, "linux", testRegistry(t), installed())
	assert.Equal(t, "xdg-open", l.Viewer())

	cmd, err := l.Command("/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"xdg-open", "/tmp/a.png"}, cmd.Args)
}

func TestLauncherDarwinCommandOverride(t *testing.T) {
	cfg := config.MediaConfig{Darwin: []string{"preview", "open"}, DefaultOpener: "open"}
	l := newLauncher(cfg, "darwin", testRegistry(t), installed("open"))
	assert.Equal(t, "preview", l.Viewer(), "preview runs through open")

	cmd, err := l.Command("/tmp/a.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "-a", "Preview", "/tmp/a.png"}, cmd.Args)
}

func TestLauncherNoViewer(t *testing.T) {
	l := newLauncher(config.MediaConfig{}, "linux", testRegistry(t), installed())
	_, err := l.Command("/tmp/a.png")
	assert.Error(t, err)
	assert.Error(t, l.Open("/tmp/a.png"))
}

func TestViewerRegistryUserOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewers.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[viewers.feh]
platforms = ["linux"]
args = ["-F"]

[viewers.imv]
platforms = ["linux"]
`), 0o644))

	r, err := NewViewerRegistry(path, filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	program, args, err := r.Args("feh", "linux", "x.png")
	require.NoError(t, err)
	assert.Equal(t, "feh", program)
	assert.Equal(t, []string{"-F", "x.png"}, args)

	_, args, err = r.Args("imv", "linux", "x.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"x.png"}, args)

	_, _, err = r.Args("feh", "darwin", "x.png")
	assert.Error(t, err)

	program, args, err = r.Args("unknown-viewer", "linux", "x.png")
	require.NoError(t, err)
	assert.Equal(t, "unknown-viewer", program)
	assert.Equal(t, []string{"x.png"}, args)
}
