// Package cli implements the mindweb command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tschomay/mindweb/pkg/buildinfo"
	"github.com/tschomay/mindweb/pkg/cache"
	"github.com/tschomay/mindweb/pkg/config"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/pipeline"
	"github.com/tschomay/mindweb/pkg/session"
)

const (
	// appName is used for directories and display.
	appName = "mindweb"

	// defaultSnapshot is used when neither --file nor the config names one.
	defaultSnapshot = "mindweb.json"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	file       string
}

// New creates a CLI logging to stderr at the given level.
func New(level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(os.Stderr, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "mindweb edits collapsible mind maps",
		Long:         `mindweb keeps a mind map in a JSON or YAML snapshot file and lets you fold branches away, grow and prune the map, render it with Graphviz, browse it in the terminal, or serve it to a browser.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mindweb/config.toml)")
	root.PersistentFlags().StringVarP(&c.file, "file", "f", "", "snapshot file (default from config, else ./"+defaultSnapshot+")")

	root.AddCommand(c.showCommand())
	root.AddCommand(c.toggleCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.relabelCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies its log level unless
// --verbose already raised it.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil && c.Logger.GetLevel() > level {
		c.SetLogLevel(level)
	}
	return nil
}

// snapshotPath resolves the snapshot file: --file, then the config, then
// ./mindweb.json.
func (c *CLI) snapshotPath() string {
	switch {
	case c.file != "":
		return c.file
	case c.Config.Snapshot != "":
		return c.Config.Snapshot
	default:
		return defaultSnapshot
	}
}

// openSession loads the snapshot file into a new session. A missing file
// yields the demo map, bound to the same path so the first save creates it.
func (c *CLI) openSession(ctx context.Context) (*session.Session, error) {
	path := c.snapshotPath()
	opts := []session.Option{
		session.WithLogger(c.Logger),
		session.WithPath(path),
		session.WithGraph(mindmap.Seed(mindmap.WithMarker(c.Config.Marker))),
	}
	sess := session.New(opts...)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		c.Logger.Debug("snapshot missing, starting from the demo map", "path", path)
		return sess, nil
	}
	if err := sess.Open(ctx, path); err != nil {
		return nil, err
	}
	return sess, nil
}

// apply opens the session, applies ev and saves the result back.
func (c *CLI) apply(ctx context.Context, ev session.Event) (*session.Session, session.Result, error) {
	sess, err := c.openSession(ctx)
	if err != nil {
		return nil, session.Result{}, err
	}
	res, err := sess.Handle(ctx, ev)
	if err != nil {
		return nil, session.Result{}, err
	}
	if _, err := sess.Save(ctx, ""); err != nil {
		return nil, session.Result{}, err
	}
	return sess, res, nil
}

// newRunner creates a render pipeline backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Render.Cache {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		r := c.Config.Redis
		return cache.DialRedis(ctx, cache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB})
	case config.CacheMongo:
		m := c.Config.Mongo
		return cache.DialMongo(ctx, cache.MongoConfig{URI: m.URI, Database: m.Database, Collection: m.Collection})
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, rendering without cache", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/mindweb/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}
