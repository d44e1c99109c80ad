package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "pagetrack/internal/modules/session/dto"
	"pagetrack/internal/ui/components"
	"pagetrack/internal/ui/theme"
	dashboardview "pagetrack/internal/ui/views/dashboard"
	libraryview "pagetrack/internal/ui/views/library"
	readerview "pagetrack/internal/ui/views/reader"
	sinksview "pagetrack/internal/ui/views/sinks"
)

// SessionPort is what the root model needs from the session beyond the
// reader view: lifecycle flushes and focus tracking.
type SessionPort interface {
	readerview.SessionPort
	Focus(ctx context.Context, focused bool) (sessiondto.FlushOutput, error)
	Pause(ctx context.Context) (sessiondto.FlushOutput, error)
	Resume(ctx context.Context) (sessiondto.LiveStatsOutput, error)
	Save(ctx context.Context) (sessiondto.FlushOutput, error)
	Close(ctx context.Context) (sessiondto.FlushOutput, error)
}

// Ports bundles the adapters the UI drives.
type Ports struct {
	Library   libraryview.Port
	Pages     readerview.PagePort
	Session   SessionPort
	Dashboard dashboardview.Port
	Sinks     sinksview.Port
	Recent    int
}

type tabID int

const (
	tabLibrary tabID = iota
	tabReader
	tabDashboard
	tabSinks
	tabCount
)

var tabLabels = [tabCount]string{"Library", "Reader", "Dashboard", "Sinks"}

type flushedMsg struct {
	out sessiondto.FlushOutput
	err error
}

type resumedMsg struct {
	live sessiondto.LiveStatsOutput
	err  error
}

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Enter   key.Binding
	Page    key.Binding
	Pause   key.Binding
	Doctor  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
		Page:    key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "page")),
		Pause:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Doctor:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "sink doctor")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Enter, k.Page, k.Pause},
		{k.Doctor},
		{k.Help, k.Palette, k.Quit},
	}
}

// Model is the root Bubble Tea model. It routes tabs and terminal focus,
// owns the help overlay and the command palette, and leaves rendering to
// the sub-views.
type Model struct {
	session SessionPort

	libView   libraryview.Model
	readView  readerview.Model
	dashView  dashboardview.Model
	sinksView sinksview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(p Ports) Model {
	return Model{
		session:   p.Session,
		libView:   libraryview.New(p.Library),
		readView:  readerview.New(p.Pages, p.Session),
		dashView:  dashboardview.New(p.Dashboard, p.Recent),
		sinksView: sinksview.New(p.Sinks),
		activeTab: tabLibrary,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.libView.Init(),
		m.readView.Init(),
		m.dashView.Init(),
		m.sinksView.Init(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tea.FocusMsg:
		return m, m.focusCmd(true)

	case tea.BlurMsg:
		return m, m.focusCmd(false)

	case flushedMsg:
		m.status = describeFlush(msg.out, msg.err)
		cmds = append(cmds, m.dashView.Reload())

	case resumedMsg:
		if msg.err != nil {
			m.status = "resume: " + msg.err.Error()
		} else {
			m.status = "reading " + msg.live.DocumentTitle
		}

	case libraryview.DocumentsLoadedMsg:
		titles := make(map[string]string, len(msg.Documents))
		for _, d := range msg.Documents {
			titles[d.ID] = d.Title
		}
		m.dashView.SetTitles(titles)
		var cmd tea.Cmd
		m.libView, cmd = m.libView.Update(msg)
		return m, cmd

	case libraryview.RefreshedMsg:
		if msg.Err != nil {
			m.status = "refresh: " + msg.Err.Error()
		} else {
			m.status = fmt.Sprintf("refreshed %d documents, %d updated, %d failed", msg.Out.Checked, msg.Out.Updated, len(msg.Out.Failed))
		}
		var cmd tea.Cmd
		m.libView, cmd = m.libView.Update(msg)
		return m, cmd

	case readerview.OpenedMsg:
		if msg.Err != nil {
			m.status = "open: " + msg.Err.Error()
		} else {
			m.status = "reading " + msg.Page.Title
			m.activeTab = tabReader
			if msg.Previous != nil {
				cmds = append(cmds, m.dashView.Reload())
			}
		}
		var cmd tea.Cmd
		m.readView, cmd = m.readView.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case readerview.PageMsg:
		if msg.Err != nil {
			m.status = "page: " + msg.Err.Error()
		}
		var cmd tea.Cmd
		m.readView, cmd = m.readView.Update(msg)
		return m, cmd

	case readerview.LiveMsg:
		if msg.Flushed != nil {
			m.status = describeFlush(*msg.Flushed, msg.Err)
			cmds = append(cmds, m.dashView.Reload())
		} else if msg.Err != nil {
			m.status = "session: " + msg.Err.Error()
		}
		var cmd tea.Cmd
		m.readView, cmd = m.readView.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case dashboardview.LoadedMsg:
		var cmd tea.Cmd
		m.dashView, cmd = m.dashView.Update(msg)
		return m, cmd

	case sinksview.DoctorMsg:
		if msg.Err != nil {
			m.status = "doctor: " + msg.Err.Error()
		} else {
			m.status = sinksview.Summary(msg.Results)
		}
		var cmd tea.Cmd
		m.sinksView, cmd = m.sinksView.Update(msg)
		return m, cmd

	case components.CommandMsg:
		return m.executePalette(msg.Line)

	case components.DismissMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewFiltering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, m.quitCmd()
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, m.onTabChange()
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, m.onTabChange()
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "enter":
			if m.activeTab == tabLibrary {
				if doc, ok := m.libView.Selected(); ok {
					return m, m.readView.Open(doc.ID)
				}
			}
		}
	}

	// Everything else, including tick and spinner messages, goes to every
	// view so background refreshes keep running off-tab.
	var cmd tea.Cmd
	if _, isKey := msg.(tea.KeyMsg); isKey {
		switch m.activeTab {
		case tabLibrary:
			m.libView, cmd = m.libView.Update(msg)
		case tabReader:
			m.readView, cmd = m.readView.Update(msg)
		case tabDashboard:
			m.dashView, cmd = m.dashView.Update(msg)
		case tabSinks:
			m.sinksView, cmd = m.sinksView.Update(msg)
		}
		return m, tea.Batch(append(cmds, cmd)...)
	}
	m.libView, cmd = m.libView.Update(msg)
	cmds = append(cmds, cmd)
	m.readView, cmd = m.readView.Update(msg)
	cmds = append(cmds, cmd)
	m.sinksView, cmd = m.sinksView.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabLibrary:
		return m.libView.View()
	case tabReader:
		return m.readView.View()
	case tabDashboard:
		return m.dashView.View()
	case tabSinks:
		return m.sinksView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "pagetrack  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  ::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "open":
		if len(parts) < 2 {
			m.status = "usage: open <document-id>"
			return m, nil
		}
		return m, m.readView.Open(parts[1])
	case "page":
		n := 0
		if len(parts) == 2 {
			n, _ = strconv.Atoi(parts[1])
		}
		cmd := m.readView.GoTo(n)
		if cmd == nil {
			m.status = "usage: page <n> within the open document"
		}
		return m, cmd
	case "pause":
		return m, m.sessionFlushCmd(m.session.Pause)
	case "resume":
		session := m.session
		return m, func() tea.Msg {
			live, err := session.Resume(context.Background())
			return resumedMsg{live: live, err: err}
		}
	case "flush":
		return m, m.sessionFlushCmd(m.session.Save)
	case "close":
		return m, m.sessionFlushCmd(m.session.Close)
	case "dashboard":
		m.activeTab = tabDashboard
		return m, m.dashView.Reload()
	case "library:refresh":
		m.status = "refreshing library…"
		return m, m.libView.RefreshCmd()
	case "sinks:doctor":
		m.activeTab = tabSinks
		return m, m.sinksView.Doctor()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabLibrary:
		return m.libView.Filtering()
	case tabSinks:
		return m.sinksView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.libView, _ = m.libView.Update(sz)
	m.readView, _ = m.readView.Update(sz)
	m.dashView, _ = m.dashView.Update(sz)
	m.sinksView, _ = m.sinksView.Update(sz)
}

func (m Model) onTabChange() tea.Cmd {
	if m.activeTab == tabDashboard {
		return m.dashView.Reload()
	}
	return nil
}

// focusCmd forwards terminal focus changes; a blur finalizes the session.
func (m Model) focusCmd(focused bool) tea.Cmd {
	if m.readView.DocumentID() == "" {
		return nil
	}
	session := m.session
	return func() tea.Msg {
		out, err := session.Focus(context.Background(), focused)
		if focused && err == nil {
			return nil
		}
		return flushedMsg{out: out, err: err}
	}
}

// quitCmd closes the open document before leaving so the last stretch of
// reading is persisted.
func (m Model) quitCmd() tea.Cmd {
	if m.readView.DocumentID() == "" {
		return tea.Quit
	}
	session := m.session
	return tea.Sequence(func() tea.Msg {
		_, _ = session.Close(context.Background())
		return nil
	}, tea.Quit)
}

func (m Model) sessionFlushCmd(fn func(context.Context) (sessiondto.FlushOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background())
		return flushedMsg{out: out, err: err}
	}
}

func describeFlush(out sessiondto.FlushOutput, err error) string {
	if err != nil {
		return fmt.Sprintf("%s flush: %v", out.Trigger, err)
	}
	switch out.Outcome {
	case "persisted":
		return fmt.Sprintf("saved %s (%d pages)", theme.Duration(out.DurationMs), out.PagesRead)
	case "discarded":
		return "session too short to save"
	default:
		return out.Trigger + ": " + out.Outcome
	}
}
