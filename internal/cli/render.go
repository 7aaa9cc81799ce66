package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/pipeline"
	"github.com/tschomay/mindweb/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file, "-" for stdout
	format  string // svg, png or dot
	rankDir string // layout direction, defaults to the config
	hidden  bool   // draw hidden nodes greyed out
	noCache bool   // bypass the render cache entirely
	refresh bool   // re-render and overwrite the cached artifact
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the mind map with Graphviz",
		Long: `Render the visible part of the mind map to SVG, PNG or DOT.

Rendered artifacts are cached by the hash of their Graphviz source, so a view
that was rendered before is served without running the layout again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: snapshot name with the format extension, - for stdout)")
	cmd.Flags().StringVar(&opts.format, "format", string(pipeline.DefaultFormat), "output format: svg, png, dot")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "", "layout direction: TB, LR, BT, RL (default from config)")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "draw hidden nodes greyed out")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts and render again")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	format, err := render.ParseFormat(strings.ToLower(opts.format))
	if err != nil {
		return err
	}
	rankDir := strings.ToUpper(opts.rankDir)
	if rankDir == "" {
		rankDir = c.Config.Render.RankDir
	}

	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Format:     format,
		RankDir:    rankDir,
		ShowHidden: opts.hidden,
		Refresh:    opts.refresh,
		TTL:        c.Config.Render.TTL,
	}
	res, err := withSpinner(ctx, "Rendering...", func() (*pipeline.Result, error) {
		return runner.Execute(ctx, sess.View(), popts)
	})
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.Write(res.Artifact)
		return err
	}
	path := opts.output
	if path == "" {
		path = outputPath(sess.Path(), format)
	}
	if err := os.WriteFile(path, res.Artifact, 0o644); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write %s", path)
	}

	printSuccess("Rendered %s", StyleHighlight.Render(strings.ToUpper(string(format))))
	printStats(res.Stats.Nodes, res.Stats.Edges, res.CacheHit)
	printFile(path)
	c.Logger.Debug("render done", "hash", res.DOTHash[:12], "duration", res.Stats.RenderTime)
	return nil
}

// outputPath derives the artifact name from the snapshot file:
// maps/ideas.json becomes maps/ideas.svg.
func outputPath(snapshot string, format render.Format) string {
	base := strings.TrimSuffix(snapshot, filepath.Ext(snapshot))
	if base == "" {
		base = appName
	}
	return base + "." + string(format)
}
