package media

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how to start an image viewer.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command defaults to the viewer's name.
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`
}

type viewersConfig struct {
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

// ViewerRegistry maps viewer names to invocations.
type ViewerRegistry struct {
	viewers map[string]ViewerDefinition
}

// NewViewerRegistry loads the built-in definitions plus any overrides found
// in extraPaths.
func NewViewerRegistry(extraPaths ...string) (*ViewerRegistry, error) {
	var cfg viewersConfig
	if err := toml.Unmarshal(viewersTOML, &cfg); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}
	r := &ViewerRegistry{viewers: cfg.Viewers}
	for _, path := range extraPaths {
		r.merge(path)
	}
	return r, nil
}

// UserViewersPath is where user overrides live.
func UserViewersPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "crumb", "viewers.toml")
}

func (r *ViewerRegistry) merge(path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var user viewersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return
	}
	for name, def := range user.Viewers {
		r.viewers[name] = def
	}
}

// Args returns the program and arguments that open target with name on goos.
// Unknown viewers are run as `name target`.
func (r *ViewerRegistry) Args(name, goos, target string) (string, []string, error) {
	def, ok := r.viewers[name]
	if !ok {
		return name, []string{target}, nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, goos) {
		return "", nil, fmt.Errorf("%s not supported on %s", name, goos)
	}
	program := def.Command
	if program == "" {
		program = name
	}
	args := append(slices.Clone(def.Args), target)
	return program, args, nil
}
