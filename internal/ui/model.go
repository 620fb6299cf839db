package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/repo"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// ── Messages ────────────────────────────────────────────────────────────────

type (
	// treeMsg carries one positional tree event.
	treeMsg struct{ event event.Event }
	// rebuiltMsg carries the whole tree after a bulk rebuild.
	rebuiltMsg struct {
		nodes []tree.Node
		rev   uint64
	}
	branchMsg  struct{ name string }
	stateMsg   struct{ state repo.State }
	actionMsg  struct {
		verb string
		err  error
	}
	diffMsg struct {
		path  string
		files []diff.File
		err   error
	}
	clearMessageMsg struct{}
)

// Subscribe forwards repository events to a running program. The tree is
// read inside the handler so a rebuild snapshot lines up with later item
// events. send must not mutate the tree. Call the returned function to
// stop forwarding.
func Subscribe(r *repo.Repository, send func(tea.Msg)) func() {
	return r.Bus().Subscribe(func(e event.Event) {
		switch e := e.(type) {
		case tree.Added, tree.Removed, tree.Updated:
			send(treeMsg{event: e})
		case tree.Reset:
			send(rebuiltMsg{rev: e.Seq})
		case tree.Rebuilt:
			nodes, rev := r.Tree().SnapshotsAt()
			send(rebuiltMsg{nodes: nodes, rev: rev})
		case repo.BranchChanged:
			send(branchMsg{name: e.Name})
		case repo.StateChanged:
			send(stateMsg{state: e.State})
		}
	})
}

// ── Model ───────────────────────────────────────────────────────────────────

// Options configures the TUI model.
type Options struct {
	Styles  Styles
	Keys    KeyMap
	Verbose bool          // Verbose diffs.
	Timeout time.Duration // Per action; zero means none.
}

// Model is the bubbletea model of the working-tree view.
//
//	▾ src/
//	    M main.go
//	  ● A README.md
//	 main │ 2 changed, 1 staged            repo
//	 space stage/unstage  enter diff/expand ...
type Model struct {
	repo    *repo.Repository
	styles  Styles
	keys    KeyMap
	verbose bool
	timeout time.Duration

	list   *List
	cursor int // index into the visible rows

	showDiff bool
	diffPath string
	diffVP   viewport.Model

	width, height int
	branch        string
	state         repo.State
	message       string
	isError       bool
}

// NewModel returns the model for r. Wire it with Subscribe before Run.
func NewModel(r *repo.Repository, opts Options) *Model {
	return &Model{
		repo:    r,
		styles:  opts.Styles,
		keys:    opts.Keys,
		verbose: opts.Verbose,
		timeout: opts.Timeout,
		list:    NewList(r.Tree().SnapshotsAt()),
		diffVP:  viewport.New(0, 0),
		branch:  r.CurrentBranch(),
		state:   r.State(),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.action("load", func(ctx context.Context) error { return m.repo.Status(ctx, true) })
}

func (m *Model) ctx() (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), m.timeout)
}

// action runs fn off the event loop; repository events it causes arrive
// through Subscribe.
func (m *Model) action(verb string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		return actionMsg{verb: verb, err: fn(ctx)}
	}
}

func (m *Model) loadDiff(path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		files, err := m.repo.Diff(ctx, path, m.verbose)
		return diffMsg{path: path, files: files, err: err}
	}
}

// ── Update ──────────────────────────────────────────────────────────────────

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.diffVP.Width = msg.Width
		m.diffVP.Height = max(msg.Height-2, 1)
		return m, nil

	case treeMsg:
		if !m.list.Apply(msg.event) {
			m.list.Reload(m.repo.Tree().SnapshotsAt())
		}
		m.clampCursor()
		return m, nil

	case rebuiltMsg:
		m.list.Reload(msg.nodes, msg.rev)
		m.clampCursor()
		return m, nil

	case branchMsg:
		m.branch = msg.name
		return m, nil

	case stateMsg:
		m.state = msg.state
		return m, nil

	case actionMsg:
		if msg.err != nil {
			return m, m.flash(msg.verb+": "+msg.err.Error(), true)
		}
		return m, nil

	case diffMsg:
		if msg.err != nil {
			return m, m.flash("diff: "+msg.err.Error(), true)
		}
		m.diffPath = msg.path
		m.diffVP.SetContent(RenderDiff(m.styles, msg.files))
		m.diffVP.GotoTop()
		m.showDiff = true
		return m, nil

	case clearMessageMsg:
		m.message, m.isError = "", false
		return m, nil

	case tea.KeyMsg:
		if m.showDiff {
			return m.updateDiff(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateDiff(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Diff):
		m.showDiff = false
		return m, nil
	}
	var cmd tea.Cmd
	m.diffVP, cmd = m.diffVP.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.list.Visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.action("refresh", func(ctx context.Context) error { return m.repo.Status(ctx, false) })
	case key.Matches(msg, m.keys.Stage):
		if n, ok := m.selected(); ok {
			return m, m.action("stage", func(ctx context.Context) error { return m.repo.ToggleStage(ctx, n.Path) })
		}
	case key.Matches(msg, m.keys.Discard):
		if n, ok := m.selected(); ok {
			return m, m.action("discard", func(ctx context.Context) error { return m.repo.Discard(ctx, n.Path) })
		}
	case key.Matches(msg, m.keys.Diff):
		n, ok := m.selected()
		if !ok {
			break
		}
		if n.IsFolder() {
			return m, func() tea.Msg {
				m.repo.Tree().SetExpanded(n.Path, !n.Expanded)
				return nil
			}
		}
		if !n.Flags.CanDiff() {
			return m, m.flash("no diff for "+n.Flags.Primary().Label()+" files", false)
		}
		return m, m.loadDiff(n.Path)
	}
	return m, nil
}

func (m *Model) selected() (tree.Node, bool) {
	rows := m.list.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return tree.Node{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.list.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) flash(text string, isError bool) tea.Cmd {
	m.message, m.isError = text, isError
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg { return clearMessageMsg{} })
}

// ── View ────────────────────────────────────────────────────────────────────

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	bodyH := max(m.height-2, 1)

	var body string
	if m.showDiff {
		body = m.diffVP.View()
	} else {
		body = m.renderList(bodyH)
	}
	body = lipgloss.NewStyle().Height(bodyH).MaxHeight(bodyH).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		RenderStatusBar(m.styles, m.statusData(), m.width),
		RenderHelpBar(m.styles, m.keys, m.width),
	)
}

func (m *Model) renderList(height int) string {
	rows := m.list.Visible()
	if len(rows) == 0 {
		return PlaceCentre(m.width, height, m.styles.Muted.Render("Nothing to commit"))
	}

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(rows))

	var out []string
	for i := start; i < end; i++ {
		out = append(out, RenderRow(m.styles, rows[i], m.width, i == m.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func (m *Model) statusData() StatusBarData {
	data := StatusBarData{
		Branch:  m.branch,
		State:   m.state,
		Message: m.message,
		IsError: m.isError,
		Dir:     m.repo.Dir(),
	}
	for _, n := range m.list.Rows() {
		if n.IsFolder() {
			continue
		}
		data.Files++
		if n.Flags.IsStaged() {
			data.Staged++
		}
	}
	return data
}
