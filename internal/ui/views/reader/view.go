package reader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	readerdto "pagetrack/internal/modules/reader/dto"
	sessiondto "pagetrack/internal/modules/session/dto"
	"pagetrack/internal/ui/theme"
)

// PagePort renders document pages.
type PagePort interface {
	OpenPage(ctx context.Context, documentID string, page int) (readerdto.PageOutput, error)
}

// SessionPort is the reading session driven by this view.
type SessionPort interface {
	Open(ctx context.Context, documentID string, page int) (sessiondto.OpenOutput, error)
	GoToPage(ctx context.Context, page int) (sessiondto.LiveStatsOutput, error)
	Activity(ctx context.Context) error
	TogglePause(ctx context.Context) (sessiondto.LiveStatsOutput, *sessiondto.FlushOutput, error)
	Live(ctx context.Context) (sessiondto.LiveStatsOutput, error)
}

// activityEvery bounds how often key presses are reported to the session.
const activityEvery = 5 * time.Second

// OpenedMsg reports a document opened in the reader.
type OpenedMsg struct {
	Page     readerdto.PageOutput
	Live     sessiondto.LiveStatsOutput
	Previous *sessiondto.FlushOutput
	Err      error
}

// PageMsg reports a page change.
type PageMsg struct {
	Page readerdto.PageOutput
	Live sessiondto.LiveStatsOutput
	Err  error
}

// LiveMsg carries refreshed live stats.
type LiveMsg struct {
	Live    sessiondto.LiveStatsOutput
	Flushed *sessiondto.FlushOutput
	Err     error
}

type tickMsg time.Time

type Model struct {
	pages        PagePort
	session      SessionPort
	viewport     viewport.Model
	spinner      spinner.Model
	page         readerdto.PageOutput
	live         sessiondto.LiveStatsOutput
	loading      bool
	lastActivity time.Time
	width        int
	height       int
}

func New(pages PagePort, session SessionPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{pages: pages, session: session, viewport: viewport.New(0, 0), spinner: sp}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width
		m.viewport.Height = max(m.height-4, 1)

	case OpenedMsg:
		m.loading = false
		if msg.Err != nil {
			m.viewport.SetContent(theme.Error.Render("Error: " + msg.Err.Error()))
			return m, nil
		}
		m.page, m.live = msg.Page, msg.Live
		m.viewport.SetContent(m.page.Text)
		m.viewport.GotoTop()

	case PageMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.page, m.live = msg.Page, msg.Live
		m.viewport.SetContent(m.page.Text)
		m.viewport.GotoTop()

	case LiveMsg:
		if msg.Err == nil {
			m.live = msg.Live
		}

	case tickMsg:
		cmds = append(cmds, tick())
		if m.page.DocumentID != "" {
			cmds = append(cmds, m.liveCmd())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if m.page.DocumentID != "" {
			switch msg.String() {
			case "right", "l", "n":
				cmds = append(cmds, m.NextPage())
			case "left", "h", "p":
				cmds = append(cmds, m.PrevPage())
			case " ":
				cmds = append(cmds, m.TogglePause())
			default:
				if now := time.Now(); now.Sub(m.lastActivity) >= activityEvery {
					m.lastActivity = now
					cmds = append(cmds, m.activityCmd())
				}
			}
		}
	}

	var vCmd tea.Cmd
	m.viewport, vCmd = m.viewport.Update(msg)
	cmds = append(cmds, vCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	header := m.renderHeader()
	if m.loading {
		body := lipgloss.Place(m.width, max(m.height-2, 1), lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Opening document…")
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), m.renderFooter())
}

// Open starts a session on documentID at its remembered page and renders it.
func (m *Model) Open(documentID string) tea.Cmd {
	m.loading = true
	return tea.Batch(m.openCmd(documentID), m.spinner.Tick)
}

// GoTo moves to an explicit page of the open document.
func (m Model) GoTo(page int) tea.Cmd {
	if m.page.DocumentID == "" || page < 1 || page > m.page.TotalPages {
		return nil
	}
	return m.pageCmd(page)
}

func (m Model) NextPage() tea.Cmd { return m.GoTo(m.page.Page + 1) }

func (m Model) PrevPage() tea.Cmd { return m.GoTo(m.page.Page - 1) }

func (m Model) TogglePause() tea.Cmd {
	return func() tea.Msg {
		live, flushed, err := m.session.TogglePause(context.Background())
		return LiveMsg{Live: live, Flushed: flushed, Err: err}
	}
}

// DocumentID returns the open document, or "" before the first open.
func (m Model) DocumentID() string { return m.page.DocumentID }

func (m Model) renderHeader() string {
	if m.page.DocumentID == "" {
		return theme.Title.Render("Reader") +
			theme.Muted.Render("  Open a document from the Library tab (enter)") + "\n"
	}
	parts := []string{
		theme.Title.Render(m.page.Title),
		theme.Muted.Render("[" + m.page.Kind + "]"),
		theme.Muted.Render(fmt.Sprintf("p.%d/%d", m.page.Page, m.page.TotalPages)),
		theme.Muted.Render("  ←/→: page  ↑/↓: scroll  space: pause"),
	}
	return strings.Join(parts, "  ") + "\n"
}

func (m Model) renderFooter() string {
	l := m.live
	if l.DocumentID == "" {
		return theme.Muted.Render("no session")
	}
	stats := fmt.Sprintf("%s  %s read  %d pages  %s/page  %d saved",
		theme.State(l.State),
		theme.Duration(l.ElapsedMs),
		l.PagesRead,
		theme.Duration(l.AvgTimePerPageMs),
		l.PersistedChunks,
	)
	if l.PauseReason != "" {
		stats += theme.Muted.Render("  (" + l.PauseReason + ")")
	}
	return stats
}

func (m Model) openCmd(documentID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		opened, err := m.session.Open(ctx, documentID, 0)
		if err != nil {
			return OpenedMsg{Err: err}
		}
		page, err := m.pages.OpenPage(ctx, documentID, opened.Live.CurrentPage)
		return OpenedMsg{Page: page, Live: opened.Live, Previous: opened.Previous, Err: err}
	}
}

func (m Model) pageCmd(page int) tea.Cmd {
	documentID := m.page.DocumentID
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.pages.OpenPage(ctx, documentID, page)
		if err != nil {
			return PageMsg{Err: err}
		}
		live, err := m.session.GoToPage(ctx, page)
		return PageMsg{Page: out, Live: live, Err: err}
	}
}

func (m Model) liveCmd() tea.Cmd {
	return func() tea.Msg {
		live, err := m.session.Live(context.Background())
		return LiveMsg{Live: live, Err: err}
	}
}

func (m Model) activityCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.session.Activity(context.Background())
		return nil
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}
