package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/pders01/crumb/internal/api"
	"github.com/pders01/crumb/internal/config"
	"github.com/pders01/crumb/internal/debuglog"
	"github.com/pders01/crumb/internal/media"
	"github.com/pders01/crumb/internal/search"
	"github.com/pders01/crumb/internal/session"
	"github.com/pders01/crumb/internal/storage"
	"github.com/pders01/crumb/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	serverURL  string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "crumb",
	Short:         "Recipes, blogs and events in your terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !quiet {
			tui.ShowBanner(Version)
		}
		return runTUI(cfg)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&serverURL, "server", "", "Backend base URL (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Skip startup banner")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides, then sets up
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = expandTilde(dbPath)
	}
	if serverURL != "" {
		cfg.API.BaseURL = serverURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandTilde(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// initTelemetry enables crash reporting when a DSN is configured. The
// returned func flushes pending events.
func initTelemetry(cfg *config.Config) func() {
	if cfg.Telemetry.SentryDSN == "" {
		return func() {}
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Telemetry.SentryDSN,
		Environment: cfg.Telemetry.Environment,
		Release:     "crumb@" + Version,
	})
	if err != nil {
		debuglog.Warnf("sentry init: %v", err)
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

// services are the long-lived dependencies shared by the TUI and the
// account commands.
type services struct {
	client  *api.Client
	store   *storage.Store
	session *session.Session
	index   *search.HistoryIndex
	blobs   *media.BlobStore
}

func openServices(cfg *config.Config) (*services, error) {
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(store)
	if err != nil {
		store.Close()
		return nil, err
	}
	client.SetToken(sess.Token())
	return &services{client: client, store: store, session: sess}, nil
}

// openMedia adds the history index and image blob store the TUI needs.
func (s *services) openMedia(cfg *config.Config) error {
	idx, err := search.Open(cfg.Database.SearchIndex)
	if err != nil {
		return err
	}
	if err := idx.Rebuild(s.store); err != nil {
		debuglog.Warnf("rebuilding history index: %v", err)
	}
	s.index = idx

	blobs, err := media.NewBlobStore(cfg.Media.TempDir)
	if err != nil {
		return err
	}
	s.blobs = blobs
	return nil
}

func (s *services) Close() {
	if s.blobs != nil {
		if err := s.blobs.Close(); err != nil {
			debuglog.Warnf("removing images: %v", err)
		}
	}
	if s.index != nil {
		s.index.Close()
	}
	s.store.Close()
}

func runTUI(cfg *config.Config) (err error) {
	flush := initTelemetry(cfg)
	defer flush()
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			flush()
			err = fmt.Errorf("crashed: %v", r)
		}
	}()
	defer debuglog.Close()

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := svc.openMedia(cfg); err != nil {
		return err
	}

	app := tui.NewApp(cfg, tui.Deps{
		Client:   svc.client,
		Session:  svc.session,
		Store:    svc.store,
		Index:    svc.index,
		Blobs:    svc.blobs,
		Launcher: media.NewLauncher(cfg),
	})
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		sentry.CaptureException(err)
		return err
	}
	return nil
}
