package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/session"
)

func parseNodeID(s string) (mindmap.NodeID, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, mwerrors.New(mwerrors.ErrCodeInvalidInput, "invalid node id %q", s)
	}
	return mindmap.NodeID(id), nil
}

func (c *CLI) toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Collapse or expand a node",
		Long: `Collapse an expanded node, hiding everything below it, or expand a
collapsed one. Expanding reveals only descendants whose path back to the node is
fully expanded; branches collapsed on their own stay folded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			sess, res, err := c.apply(cmd.Context(), session.Event{Kind: session.EventToggle, NodeID: id})
			if err != nil {
				return err
			}
			n, _ := res.View.Node(id)
			if res.Collapsed {
				printSuccess("Collapsed %s", StyleHighlight.Render(n.Label))
			} else {
				printSuccess("Expanded %s", StyleHighlight.Render(n.Label))
			}
			visible := res.View.Visible()
			printStats(len(visible.Nodes), len(visible.Edges), false)
			printFile(sess.Path())
			return nil
		},
	}
}

func (c *CLI) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <parent> <label>...",
		Short: "Add a child node",
		Long: `Add a child under <parent>. The label may be several words and may contain
HTML, which is reduced to plain text. A child added under a collapsed or hidden
parent starts hidden.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			label := strings.Join(args[1:], " ")
			sess, res, err := c.apply(cmd.Context(), session.Event{Kind: session.EventAddChild, NodeID: parent, Label: label})
			if err != nil {
				return err
			}
			n, _ := res.View.Node(res.NodeID)
			printSuccess("Added node %d %s", res.NodeID, StyleHighlight.Render(n.Label))
			if n.Hidden {
				printDetail("hidden until node %d is expanded", parent)
			}
			printFile(sess.Path())
			return nil
		},
	}
}

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a node and everything below it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			sess, res, err := c.apply(cmd.Context(), session.Event{Kind: session.EventRemove, NodeID: id})
			if err != nil {
				return err
			}
			printSuccess("Removed %d nodes", len(res.Removed))
			ids := make([]string, len(res.Removed))
			for i, r := range res.Removed {
				ids[i] = strconv.Itoa(int(r))
			}
			printDetail("ids: %s", strings.Join(ids, ", "))
			printFile(sess.Path())
			return nil
		},
	}
}

func (c *CLI) relabelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relabel <id> <label>...",
		Short: "Change a node's label",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			label := strings.Join(args[1:], " ")
			sess, res, err := c.apply(cmd.Context(), session.Event{Kind: session.EventRelabel, NodeID: id, Label: label})
			if err != nil {
				return err
			}
			n, _ := res.View.Node(id)
			printSuccess("Relabeled node %d to %s", id, StyleHighlight.Render(n.Label))
			printFile(sess.Path())
			return nil
		},
	}
}
