package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) showCommand() *cobra.Command {
	var (
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the mind map as a tree",
		Long: `Print the mind map as a tree. Collapsed branches end at their collapsed node,
which carries the collapse marker; --all also lists the hidden nodes below it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			v := sess.View()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}

			fmt.Fprint(out, renderTree(v, treeOptions{ShowHidden: all}))
			visible := v.Visible()
			printStats(len(visible.Nodes), len(visible.Edges), false)
			if hidden := len(v.Nodes) - len(visible.Nodes); hidden > 0 && !all {
				printDetail("%d hidden nodes (use --all to list them)", hidden)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include hidden nodes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}
