package sinks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sinkdto "pagetrack/internal/modules/sink/dto"
	"pagetrack/internal/ui/theme"
)

// Port is the part of the sink use-case this view needs.
type Port interface {
	List(ctx context.Context) ([]sinkdto.SinkInfo, error)
	Doctor(ctx context.Context) ([]sinkdto.DoctorResult, error)
}

type LoadedMsg struct {
	Sinks []sinkdto.SinkInfo
	Err   error
}

type DoctorMsg struct {
	Results []sinkdto.DoctorResult
	Err     error
}

type sinkItem struct {
	info   sinkdto.SinkInfo
	health *sinkdto.DoctorResult
}

func (i sinkItem) Title() string { return i.info.Name + " " + theme.Muted.Render(i.info.Version) }
func (i sinkItem) Description() string {
	state := "disabled"
	if i.info.Enabled {
		state = "enabled"
	}
	if i.health == nil {
		return state
	}
	if i.health.Error != "" {
		return state + "  " + theme.Error.Render(i.health.Error)
	}
	return state + "  " + theme.Good.Render("healthy")
}
func (i sinkItem) FilterValue() string { return i.info.Name }

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	sinks   []sinkdto.SinkInfo
	health  map[string]sinkdto.DoctorResult
	err     error
	busy    bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sinks"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp, health: map[string]sinkdto.DoctorResult{}}
}

func (m Model) Init() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return m.loadCmd()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width, max(m.height-2, 1))

	case LoadedMsg:
		m.sinks, m.err = msg.Sinks, msg.Err
		cmds = append(cmds, m.list.SetItems(m.items()))

	case DoctorMsg:
		m.busy = false
		m.err = msg.Err
		for _, r := range msg.Results {
			m.health[r.Name] = r
		}
		cmds = append(cmds, m.list.SetItems(m.items()))

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if msg.String() == "d" && !m.Filtering() {
			cmds = append(cmds, m.Doctor())
		}
	}

	var lCmd tea.Cmd
	m.list, lCmd = m.list.Update(msg)
	cmds = append(cmds, lCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var footer string
	switch {
	case m.port == nil:
		footer = theme.Muted.Render("sink delivery is not configured")
	case m.err != nil:
		footer = theme.Error.Render(m.err.Error())
	case m.busy:
		footer = m.spinner.View() + " checking sinks…"
	case len(m.sinks) == 0:
		footer = theme.Muted.Render("no sinks in sinks.yaml")
	default:
		footer = theme.Muted.Render("d: doctor")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

func (m Model) Filtering() bool { return m.list.FilterState() == list.Filtering }

// Doctor re-checks every sink's binary, checksum and lifecycle.
func (m *Model) Doctor() tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.busy = true
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		results, err := port.Doctor(context.Background())
		return DoctorMsg{Results: results, Err: err}
	})
}

// Summary is a one-line doctor report for the status bar.
func Summary(results []sinkdto.DoctorResult) string {
	var bad []string
	for _, r := range results {
		if r.Error != "" {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) == 0 {
		return fmt.Sprintf("%d sinks healthy", len(results))
	}
	return fmt.Sprintf("%d/%d sinks unhealthy: %s", len(bad), len(results), strings.Join(bad, ", "))
}

func (m Model) items() []list.Item {
	items := make([]list.Item, len(m.sinks))
	for i, s := range m.sinks {
		item := sinkItem{info: s}
		if h, ok := m.health[s.Name]; ok {
			item.health = &h
		}
		items[i] = item
	}
	return items
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		sinks, err := m.port.List(context.Background())
		return LoadedMsg{Sinks: sinks, Err: err}
	}
}
