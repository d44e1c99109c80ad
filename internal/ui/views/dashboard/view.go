package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	analyticsdto "pagetrack/internal/modules/analytics/dto"
	"pagetrack/internal/ui/theme"
)

type Port interface {
	Dashboard(ctx context.Context, recent int) (analyticsdto.DashboardOutput, error)
}

type LoadedMsg struct {
	Out analyticsdto.DashboardOutput
	Err error
}

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const barWidth = 30

type Model struct {
	port     Port
	recent   int
	out      analyticsdto.DashboardOutput
	titles   map[string]string
	err      error
	viewport viewport.Model
}

func New(port Port, recent int) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Padding(0, 1)
	return Model{port: port, recent: recent, titles: map[string]string{}, viewport: vp}
}

func (m Model) Init() tea.Cmd { return m.Reload() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-1, 1)
	case LoadedMsg:
		m.out, m.err = msg.Out, msg.Err
		m.viewport.SetContent(Render(m.out, m.titles, m.err))
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string { return m.viewport.View() }

// SetTitles maps document ids to titles for display.
func (m *Model) SetTitles(titles map[string]string) {
	m.titles = titles
	m.viewport.SetContent(Render(m.out, m.titles, m.err))
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Dashboard(context.Background(), m.recent)
		return LoadedMsg{Out: out, Err: err}
	}
}

// Render lays out the dashboard as plain styled text.
func Render(out analyticsdto.DashboardOutput, titles map[string]string, err error) string {
	if err != nil {
		return theme.Error.Render("dashboard: " + err.Error())
	}
	title := func(id string) string {
		if t := titles[id]; t != "" {
			return t
		}
		return id
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Reading") + "\n\n")
	if out.Degraded {
		sb.WriteString(theme.Error.Render("some statistics could not be read; showing defaults") + "\n\n")
	}
	fmt.Fprintf(&sb, "%s %s   %s %d   %s %d\n",
		theme.Muted.Render("lifetime"), theme.Duration(out.TotalLifetimeReadingMs),
		theme.Muted.Render("sessions"), out.TotalLifetimeSessions,
		theme.Muted.Render("pages"), out.TotalLifetimePagesRead)
	fmt.Fprintf(&sb, "%s %s   %s %d days   %s %d days\n",
		theme.Muted.Render("longest session"), theme.Duration(out.LongestSessionMs),
		theme.Muted.Render("streak"), out.CurrentStreak,
		theme.Muted.Render("best"), out.LongestStreak)
	fmt.Fprintf(&sb, "%s %s in %d sessions\n\n",
		theme.Muted.Render("today"), theme.Duration(out.Today.TotalReadingTimeMs), out.Today.SessionCount)

	sb.WriteString(theme.Title.Render("This week") + "\n")
	peak := 0
	for _, v := range out.WeeklyMinutes {
		peak = max(peak, v)
	}
	for i, v := range out.WeeklyMinutes {
		fmt.Fprintf(&sb, "%s %s %d min\n", theme.Muted.Render(weekdays[i]), theme.Bar(v, peak, barWidth), v)
	}

	if len(out.Documents) > 0 {
		sb.WriteString("\n" + theme.Title.Render("Documents") + "\n")
		for _, d := range out.Documents {
			fmt.Fprintf(&sb, "%s  %s  %d/%d pages  %s/page\n",
				theme.Hot.Render(title(d.DocumentID)),
				theme.Duration(d.TotalReadingTimeMs),
				d.UniquePagesRead, d.TotalPagesRead,
				theme.Duration(d.AvgTimePerPageMs))
		}
	}

	if len(out.RecentSessions) > 0 {
		sb.WriteString("\n" + theme.Title.Render("Recent sessions") + "\n")
		for _, s := range out.RecentSessions {
			fmt.Fprintf(&sb, "%s  %s  %s  %d pages\n",
				theme.Muted.Render(s.StartedAt.Local().Format("Jan 02 15:04")),
				title(s.DocumentID),
				theme.Duration(s.TotalDurationMs),
				s.PagesRead)
		}
	}
	return sb.String()
}
