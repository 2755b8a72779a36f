package media

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/crumb/internal/config"
)

// Launcher opens images in an external viewer.
type Launcher struct {
	goos          string
	viewer        string
	defaultOpener string
	registry      *ViewerRegistry
	lookPath      func(string) (string, error)
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewViewerRegistry(UserViewersPath())
	if err != nil {
		registry = &ViewerRegistry{viewers: make(map[string]ViewerDefinition)}
	}
	return newLauncher(cfg.Media, runtime.GOOS, registry, exec.LookPath)
}

func newLauncher(cfg config.MediaConfig, goos string, registry *ViewerRegistry, lookPath func(string) (string, error)) *Launcher {
	l := &Launcher{
		goos:          goos,
		defaultOpener: cfg.DefaultOpener,
		registry:      registry,
		lookPath:      lookPath,
	}

	var candidates []string
	switch goos {
	case "darwin":
		candidates = cfg.Darwin
	case "linux":
		candidates = cfg.Linux
	case "windows":
		candidates = cfg.Windows
	default:
		candidates = cfg.Linux
	}
	l.viewer = l.findCommand(candidates...)
	if l.viewer == "" {
		l.viewer = l.defaultOpener
	}
	return l
}

// Viewer is the viewer Open will use.
func (l *Launcher) Viewer() string { return l.viewer }

// Command builds the command that opens target without starting it.
func (l *Launcher) Command(target string) (*exec.Cmd, error) {
	if l.viewer == "" {
		return nil, fmt.Errorf("no image viewer found")
	}
	program, args, err := l.registry.Args(l.viewer, l.goos, target)
	if err != nil {
		program, args = l.viewer, []string{target}
	}
	return exec.Command(program, args...), nil
}

// Open starts the viewer detached.
func (l *Launcher) Open(target string) error {
	cmd, err := l.Command(target)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.viewer, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func (l *Launcher) findCommand(commands ...string) string {
	for _, cmd := range commands {
		program := cmd
		if def, ok := l.registry.viewers[cmd]; ok && def.Command != "" {
			program = def.Command
		}
		if _, err := l.lookPath(program); err == nil {
			return cmd
		}
	}
	return ""
}
