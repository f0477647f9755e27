// Package cli implements the ivm command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ivm/pkg/buildinfo"
	"github.com/matzehuels/ivm/pkg/config"
	"github.com/matzehuels/ivm/pkg/httputil"
	"github.com/matzehuels/ivm/pkg/lock"
	"github.com/matzehuels/ivm/pkg/manifest"
	"github.com/matzehuels/ivm/pkg/paths"
	"github.com/matzehuels/ivm/pkg/store"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Dirs resolves the platform directories. It defaults to paths.XDG.
	Dirs func() (paths.Dirs, error)
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Dirs:   paths.XDG,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	setLevel(c.Logger, level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ivm",
		Short: "Inko's version manager",
		Long: `ivm is Inko's version manager. It downloads, builds and installs
versions of the Inko compiler, and manages the default version.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.knownCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.defaultCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.implodeCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment
// =============================================================================

// env is what a command works with: the directory layout, the settings and
// the components built from them.
type env struct {
	paths    paths.Paths
	config   config.Config
	client   *httputil.Client
	manifest *manifest.Cache
	store    *store.Store
	pointer  *store.Pointer
}

// loadEnv resolves the directories, creates them if needed and loads the
// configuration file.
func (c *CLI) loadEnv() (*env, error) {
	dirs, err := c.Dirs()
	if err != nil {
		return nil, err
	}
	p, err := paths.New(dirs)
	if err != nil {
		return nil, err
	}
	if err := p.Ensure(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(p.ConfigFile)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded configuration", "path", p.ConfigFile, "release_url", cfg.ReleaseURL)

	client := httputil.NewClient(cfg.HTTPTimeout.Duration, httputil.RetryPolicy{
		Attempts: cfg.HTTPAttempts,
		Delay:    cfg.HTTPRetryDelay.Duration,
	})
	s := store.New(p)

	return &env{
		paths:    p,
		config:   cfg,
		client:   client,
		manifest: manifest.NewCache(p.ManifestFile, cfg.ManifestURL(), cfg.ManifestTTL.Duration, client),
		store:    s,
		pointer:  store.NewPointer(s),
	}, nil
}

// withLock runs fn while holding the data directory lock.
func (c *CLI) withLock(ctx context.Context, e *env, fn func() error) error {
	l, err := lock.AcquireTimeout(ctx, e.paths.LockFile, e.config.LockTimeout.Duration)
	if err != nil {
		return err
	}
	defer l.Release()

	c.Logger.Debug("acquired lock", "path", l.Path())
	return fn()
}
