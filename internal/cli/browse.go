package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/session"
)

func (c *CLI) browseCommand() *cobra.Command {
	var (
		logFile string
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit the mind map in the terminal",
		Long: `Open the mind map in an interactive tree. Move with the arrow keys, fold
and unfold branches with enter, and grow or prune the map in place. Changes are
kept in memory until saved with s.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal belongs to the program, so logs go to a file or nowhere.
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := tea.LogToFile(logFile, appName)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			c.Logger = newLogger(w, c.Logger.GetLevel())
			ctx := withLogger(cmd.Context(), c.Logger)

			sess, err := c.openSession(ctx)
			if err != nil {
				return err
			}

			var changes <-chan struct{}
			if watch {
				watcher, err := session.NewWatcher(sess.Path(), session.WithWatchLogger(c.Logger))
				if err != nil {
					return err
				}
				defer watcher.Close()
				changes = watcher.Changes()
			}

			_, err = tea.NewProgram(newBrowseModel(ctx, sess, changes), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&logFile, "log", "", "write logs to this file")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the snapshot file changes")
	return cmd
}

type browseKeys struct {
	Up, Down, Toggle, Add, Relabel, Delete, Hidden, Save, Reload, Quit key.Binding
}

var defaultBrowseKeys = browseKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("⏎", "fold")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
	Relabel: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "relabel")),
	Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
	Hidden:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hidden")),
	Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Add, k.Relabel, k.Delete, k.Save, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Add, k.Relabel, k.Delete},
		{k.Hidden, k.Save, k.Reload, k.Quit},
	}
}

type editMode int

const (
	modeNavigate editMode = iota
	modeAdd
	modeRelabel
)

// browseRow is one line of the flattened tree.
type browseRow struct {
	id    mindmap.NodeID
	depth int
}

type (
	savedMsg struct {
		path string
		err  error
	}
	fileChangedMsg struct{}
)

type browseModel struct {
	ctx     context.Context
	sess    *session.Session
	changes <-chan struct{}

	view       mindmap.View
	rows       []browseRow
	cursor     int
	offset     int
	height     int
	showHidden bool

	mode  editMode
	input textinput.Model
	keys  browseKeys
	help  help.Model

	status    string
	statusErr bool
}

func newBrowseModel(ctx context.Context, sess *session.Session, changes <-chan struct{}) browseModel {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40

	m := browseModel{
		ctx:     ctx,
		sess:    sess,
		changes: changes,
		height:  20,
		input:   ti,
		keys:    defaultBrowseKeys,
		help:    help.New(),
	}
	m.refresh()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// waitForChange turns the next watcher notification into a message.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

func saveCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		path, err := sess.Save(ctx, "")
		return savedMsg{path: path, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("saved " + msg.path)
		}
		return m, nil

	case fileChangedMsg:
		if !m.sess.ChangedOnDisk() {
			return m, waitForChange(m.changes)
		}
		if err := m.sess.Reload(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("reloaded from disk")
		}
		m.refresh()
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		if m.mode != modeNavigate {
			return m.updateInput(msg)
		}
		return m.updateNavigate(msg)
	}
	return m, nil
}

func (m browseModel) updateNavigate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.selectCurrent()
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.selectCurrent()
		}

	case key.Matches(msg, m.keys.Toggle):
		m.handle(session.Event{Kind: session.EventToggle, NodeID: m.current()})

	case key.Matches(msg, m.keys.Delete):
		m.handle(session.Event{Kind: session.EventRemove, NodeID: m.current()})

	case key.Matches(msg, m.keys.Hidden):
		m.showHidden = !m.showHidden
		m.refresh()

	case key.Matches(msg, m.keys.Add):
		if len(m.rows) == 0 {
			return m, nil
		}
		m.mode = modeAdd
		m.input.Placeholder = "new child label"
		m.input.Reset()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Relabel):
		n, ok := m.view.Node(m.current())
		if !ok {
			return m, nil
		}
		m.mode = modeRelabel
		m.input.Placeholder = "label"
		label := n.Label
		if n.Collapsed {
			label = strings.TrimSuffix(label, m.sess.Marker())
		}
		m.input.SetValue(label)
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Save):
		m.setStatus("saving...")
		return m, saveCmd(m.ctx, m.sess)

	case key.Matches(msg, m.keys.Reload):
		if err := m.sess.Reload(m.ctx); err != nil {
			m.setError(err)
		} else {
			m.setStatus("reloaded")
		}
		m.refresh()
	}
	m.scroll()
	return m, nil
}

func (m browseModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeNavigate
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		label := m.input.Value()
		ev := session.Event{Kind: session.EventRelabel, NodeID: m.current(), Label: label}
		if m.mode == modeAdd {
			ev.Kind = session.EventAddChild
		}
		m.mode = modeNavigate
		m.input.Blur()
		m.handle(ev)
		m.scroll()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handle applies ev and keeps the cursor on a sensible row.
func (m *browseModel) handle(ev session.Event) {
	if len(m.rows) == 0 {
		return
	}
	logger := loggerFromContext(m.ctx)
	res, err := m.sess.Handle(m.ctx, ev)
	if err != nil {
		logger.Debug("event failed", "kind", ev.Kind, "node", ev.NodeID, "err", err)
		m.setError(err)
		return
	}
	logger.Debug("event", "kind", ev.Kind, "node", res.NodeID)

	switch ev.Kind {
	case session.EventToggle:
		if res.Collapsed {
			m.setStatus(fmt.Sprintf("collapsed %d", ev.NodeID))
		} else {
			m.setStatus(fmt.Sprintf("expanded %d", ev.NodeID))
		}
	case session.EventAddChild:
		m.setStatus(fmt.Sprintf("added %d", res.NodeID))
	case session.EventRemove:
		m.setStatus(fmt.Sprintf("removed %d nodes", len(res.Removed)))
	case session.EventRelabel:
		m.setStatus(fmt.Sprintf("relabeled %d", ev.NodeID))
	}
	m.refresh()
}

// refresh rebuilds the rows from the session and clamps the cursor.
func (m *browseModel) refresh() {
	m.view = m.sess.View()
	m.rows = flatten(m.view, m.showHidden)
	if sel, ok := m.sess.Selected(); ok {
		if i := slices.IndexFunc(m.rows, func(r browseRow) bool { return r.id == sel }); i >= 0 {
			m.cursor = i
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	m.scroll()
}

func (m *browseModel) selectCurrent() {
	if id := m.current(); id != 0 {
		_, _ = m.sess.Handle(m.ctx, session.Event{Kind: session.EventSelect, NodeID: id})
	}
}

func (m browseModel) current() mindmap.NodeID {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return 0
	}
	return m.rows[m.cursor].id
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *browseModel) setStatus(s string) { m.status, m.statusErr = s, false }
func (m *browseModel) setError(err error) { m.status, m.statusErr = err.Error(), true }

// flatten lists the nodes depth first from the roots. A node reachable
// along several paths is listed under the first one only.
func flatten(v mindmap.View, showHidden bool) []browseRow {
	hidden := make(map[mindmap.NodeID]bool, len(v.Nodes))
	for _, n := range v.Nodes {
		hidden[n.ID] = n.Hidden
	}
	children := make(map[mindmap.NodeID][]mindmap.NodeID)
	hasParent := make(map[mindmap.NodeID]bool)
	for _, e := range v.Edges {
		if e.Hidden && !showHidden {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		hasParent[e.To] = true
	}

	var rows []browseRow
	seen := make(map[mindmap.NodeID]bool)
	var walk func(id mindmap.NodeID, depth int)
	walk = func(id mindmap.NodeID, depth int) {
		if seen[id] || (hidden[id] && !showHidden) {
			return
		}
		seen[id] = true
		rows = append(rows, browseRow{id: id, depth: depth})
		for _, c := range children[id] {
			walk(c, depth+1)
		}
	}
	for _, n := range v.Nodes {
		if !hasParent[n.ID] {
			walk(n.ID, 0)
		}
	}
	// Nodes only reachable through a cycle.
	for _, n := range v.Nodes {
		walk(n.ID, 0)
	}
	return rows
}

var (
	browseCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

func (m browseModel) View() string {
	var b strings.Builder

	title := "mindweb"
	if p := m.sess.Path(); p != "" {
		title += " · " + p
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(StyleDim.Render("  (empty map)"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		n, _ := m.view.Node(r.id)
		cursor := "  "
		if i == m.cursor {
			cursor = browseCursorStyle.Render(iconSelected)
		}
		b.WriteString(cursor + strings.Repeat("  ", r.depth) + nodeLabel(n, treeOptions{ShowHidden: m.showHidden}))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.mode != modeNavigate:
		b.WriteString(m.input.View())
	case m.statusErr:
		b.WriteString(browseErrorStyle.Render(iconError + " " + m.status))
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
