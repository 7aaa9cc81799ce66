package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tschomay/mindweb/pkg/config"
	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/session"
)

func (c *CLI) exportCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the mind map to a snapshot file or stdout",
		Long: `Write the mind map to a snapshot file. The encoding follows the file
extension (.yaml and .yml are YAML, anything else JSON) unless --format is set.
Without a path the snapshot goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				f, err := pio.ParseFormat(format)
				if err != nil {
					return err
				}
				return pio.Write(cmd.OutOrStdout(), sess.Snapshot(), f)
			}

			path := args[0]
			if format != "" {
				f, err := pio.ParseFormat(format)
				if err != nil {
					return err
				}
				if f != pio.FormatFor(path) {
					return mwerrors.New(mwerrors.ErrCodeInvalidInput, "--format %s does not match the extension of %s", f, path)
				}
			}
			res, err := sess.Handle(cmd.Context(), session.Event{Kind: session.EventExport, Path: path})
			if err != nil {
				return err
			}
			printSuccess("Exported %d nodes", len(res.View.Nodes))
			printFile(res.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "snapshot encoding: json or yaml")
	return cmd
}

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace the mind map with another snapshot",
		Long: `Read a snapshot file, check it, and make it the current mind map. A
malformed snapshot is rejected and the current map is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src := args[0]
			if err := mwerrors.ValidatePath(src); err != nil {
				return err
			}

			f, err := os.Open(src)
			if errors.Is(err, fs.ErrNotExist) {
				return mwerrors.Wrap(mwerrors.ErrCodeFileNotFound, err, "open %s", src)
			}
			if err != nil {
				return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "open %s", src)
			}

			sess, err := c.openSession(ctx)
			if err != nil {
				f.Close()
				return err
			}
			prog := newProgress(c.Logger)
			results, err := sess.StartImport(ctx, f, pio.FormatFor(src))
			if err != nil {
				f.Close()
				return err
			}
			res, _ := withSpinner(ctx, "Reading "+filepath.Base(src)+"...", func() (session.ImportResult, error) {
				return <-results, nil
			})
			if err := sess.CompleteImport(ctx, res); err != nil {
				return err
			}
			prog.done("read " + src)

			path, err := sess.Save(ctx, "")
			if err != nil {
				return err
			}
			v := sess.View()
			printSuccess("Imported %s", StyleHighlight.Render(filepath.Base(src)))
			printStats(len(v.Nodes), len(v.Edges), false)
			printFile(path)
			return nil
		},
	}
}

func (c *CLI) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a demo snapshot and a default config file",
		Long: `Write the demo mind map to the snapshot file and, when none exists yet,
a config file holding the defaults. Existing files are kept unless --force is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.snapshotPath()
			if exists(path) && !force {
				printWarning("%s already exists (use --force to overwrite)", path)
			} else {
				if err := pio.ExportFile(mindmap.Seed(mindmap.WithMarker(c.Config.Marker)), path); err != nil {
					return err
				}
				printSuccess("Wrote demo map")
				printFile(path)
			}

			cfgPath := c.configPath
			if cfgPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				cfgPath = p
			}
			if exists(cfgPath) && !force {
				printDetail("keeping config %s", cfgPath)
				return nil
			}
			if err := config.Write(cfgPath, c.Config); err != nil {
				return err
			}
			printSuccess("Wrote config")
			printFile(cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
