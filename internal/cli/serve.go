package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tschomay/mindweb/pkg/observability"
	"github.com/tschomay/mindweb/pkg/server"
	"github.com/tschomay/mindweb/pkg/session"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		watch   bool
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mind map over HTTP",
		Long: `Serve the mind map to a browser front end. Gestures arrive as JSON events,
the current view and rendered images are available under /api, and Prometheus
metrics under /metrics.

With --watch the map is reloaded whenever the snapshot file changes on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, watch, noCache)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the snapshot file changes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, watch, noCache bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks, err := observability.NewPromHooks(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	observability.SetGraphHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if watch {
		w, err := session.NewWatcher(sess.Path(), session.WithWatchLogger(c.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
		go sess.Follow(ctx, w, nil)
		c.Logger.Info("watching snapshot", "path", w.Path())
	}

	srv := server.New(sess,
		server.WithRunner(runner),
		server.WithLogger(c.Logger),
		server.WithGatherer(reg),
		server.WithRankDir(c.Config.Render.RankDir),
	)
	printInfo("Listening on %s", StyleHighlight.Render("http://"+addr))
	return srv.ListenAndServe(ctx, addr)
}
