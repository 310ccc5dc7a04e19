// Package app wires the application together: registry, plugin manager,
// history store, logger, and writer, constructed once and passed by
// reference.
package app

import (
	"context"
	"database/sql"
	"io"

	"go.uber.org/zap"

	"github.com/plinth-cli/plinth/internal/cli"
	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/history"
	"github.com/plinth-cli/plinth/internal/log"
	"github.com/plinth-cli/plinth/internal/paths"
	"github.com/plinth-cli/plinth/internal/plugin"
	"github.com/plinth-cli/plinth/internal/shell"
	"github.com/plinth-cli/plinth/internal/ui"
	"github.com/plinth-cli/plinth/internal/ui/style"
)

// Options configures the application factory.
type Options struct {
	Version string

	// Log options
	LogLevel string
	LogPath  string

	// HistoryPath is the SQLite file for persisted shell history.
	HistoryPath string

	// PluginsDir is scanned for *.plugin.yaml manifests. Empty skips the
	// scan; compiled-in plugins are always discovered.
	PluginsDir string

	// Pager options
	PagerDisabled bool
	PagerOverride string

	// Style options
	StyleEnabled bool
}

// DefaultOptions returns options pointing at the standard data locations.
func DefaultOptions(version string) Options {
	return Options{
		Version:      version,
		LogLevel:     "warn",
		LogPath:      paths.LogFilePath(),
		HistoryPath:  paths.HistoryDBPath(),
		PluginsDir:   paths.PluginsDir(),
		StyleEnabled: true,
	}
}

// App holds the wired application.
type App struct {
	Version  string
	Registry *dispatch.Registry
	Plugins  *plugin.Manager
	History  *history.Store
	Writer   *ui.Writer
	Logger   *zap.Logger
}

// New creates an App with all dependencies wired up. Compiled-in plugin
// entries are discovered immediately; manifest discovery failures are logged
// but do not abort startup.
func New(opts Options) (*App, error) {
	logger, err := log.New(log.Options{Level: opts.LogLevel, Path: opts.LogPath})
	if err != nil {
		logger = log.NewNop()
	}

	style.Init(opts.StyleEnabled)

	store, err := history.New(opts.HistoryPath)
	if err != nil {
		return nil, err
	}

	registry := cli.NewRootRegistry()
	manager := plugin.NewManager(registry, logger)

	deps := cli.Deps{
		Version: opts.Version,
		Plugins: manager,
		History: store,
	}
	if err := cli.Attach(registry, deps); err != nil {
		_ = store.Close()
		return nil, err
	}

	if err := manager.Discover(plugin.CompiledIn()...); err != nil {
		logger.Warn("compiled-in plugin discovery reported errors", zap.Error(err))
	}
	if opts.PluginsDir != "" {
		if err := manager.DiscoverDir(opts.PluginsDir); err != nil {
			logger.Warn("manifest discovery reported errors",
				zap.String("dir", opts.PluginsDir), zap.Error(err))
		}
	}

	var writerOpts []ui.WriterOption
	if opts.PagerDisabled {
		writerOpts = append(writerOpts, ui.WithPagerDisabled())
	}
	if opts.PagerOverride != "" {
		writerOpts = append(writerOpts, ui.WithPagerOverride(opts.PagerOverride))
	}

	return &App{
		Version:  opts.Version,
		Registry: registry,
		Plugins:  manager,
		History:  store,
		Writer:   ui.NewWriter(writerOpts...),
		Logger:   logger,
	}, nil
}

// NewForTesting creates an App on the given database with a nop logger and
// no styling.
func NewForTesting(db *sql.DB) (*App, error) {
	store := history.NewWithDB(db)
	registry := cli.NewRootRegistry()
	manager := plugin.NewManager(registry, nil)

	deps := cli.Deps{
		Version: "test",
		Plugins: manager,
		History: store,
	}
	if err := cli.Attach(registry, deps); err != nil {
		return nil, err
	}

	return &App{
		Version:  "test",
		Registry: registry,
		Plugins:  manager,
		History:  store,
		Writer:   ui.NewWriterTo(io.Discard, io.Discard, ui.WithPagerDisabled()),
		Logger:   log.NewNop(),
	}, nil
}

// Invoke dispatches one command line non-interactively and returns the
// process exit code.
func (a *App) Invoke(ctx context.Context, argv []string) int {
	res := a.Registry.Dispatch(argv, dispatch.NewEnvironment(ctx, nil))
	a.Writer.Render(res)
	return res.ExitCode()
}

// RunShell starts the interactive session and blocks until it ends.
func (a *App) RunShell(ctx context.Context) error {
	completer := shell.NewCompleter(a.Registry, shell.BuiltinNames())
	input, err := shell.NewReadlineSource("plinth> ", completer, a.History)
	if err != nil {
		return err
	}

	session := shell.New(shell.Options{
		Registry:  a.Registry,
		Input:     input,
		Output:    a.Writer,
		Store:     a.History,
		Completer: completer,
		Browser:   func() error { return ui.RunBrowser(a.Registry) },
		Logger:    a.Logger,
		Ctx:       ctx,
	})
	return session.Run()
}

// WatchPlugins re-scans the plugins directory when manifests change. It
// returns immediately; rescans run until ctx is canceled.
func (a *App) WatchPlugins(ctx context.Context, dir string) error {
	return a.Plugins.Watch(ctx, dir)
}

// Close releases application resources.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
