package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	librarydto "pagetrack/internal/modules/library/dto"
	"pagetrack/internal/ui/theme"
)

// Port is the part of the library use-case this view needs.
type Port interface {
	List(ctx context.Context) ([]librarydto.DocumentOutput, error)
	Refresh(ctx context.Context) (librarydto.RefreshOutput, error)
}

type DocumentsLoadedMsg struct {
	Documents []librarydto.DocumentOutput
	Err       error
}

type RefreshedMsg struct {
	Out librarydto.RefreshOutput
	Err error
}

type documentItem struct {
	doc librarydto.DocumentOutput
}

func (i documentItem) Title() string { return i.doc.Title }
func (i documentItem) Description() string {
	return fmt.Sprintf("%s  %d pages", i.doc.Kind, i.doc.PageCount)
}
func (i documentItem) FilterValue() string { return i.doc.Title }

type Model struct {
	port    Port
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Library"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, detail: vp, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case DocumentsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Library: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Library"
		items := make([]list.Item, len(msg.Documents))
		for i, d := range msg.Documents {
			items[i] = documentItem{doc: d}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case RefreshedMsg:
		if msg.Err == nil {
			cmds = append(cmds, m.Reload())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		m.detail.SetContent(m.renderDetail())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading library…")
	}
	listW := m.width * 4 / 10
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(m.width - listW - 2).
		Height(m.height - 2).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Selected returns the highlighted document.
func (m Model) Selected() (librarydto.DocumentOutput, bool) {
	if item, ok := m.list.SelectedItem().(documentItem); ok {
		return item.doc, true
	}
	return librarydto.DocumentOutput{}, false
}

// Filtering reports whether the list's search filter has the keyboard.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		docs, err := m.port.List(context.Background())
		return DocumentsLoadedMsg{Documents: docs, Err: err}
	}
}

// RefreshCmd recounts pages of every document and reloads the list.
func (m Model) RefreshCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Refresh(context.Background())
		return RefreshedMsg{Out: out, Err: err}
	}
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	m.list.SetSize(listW, m.height)
	m.detail.Width = m.width - listW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	d, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("Add documents with `pagetrack library add <path>`")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Title) + "\n\n")
	sb.WriteString(theme.Muted.Render("id:    ") + d.ID + "\n")
	sb.WriteString(theme.Muted.Render("kind:  ") + d.Kind + "\n")
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("pages: "), d.PageCount))
	sb.WriteString(theme.Muted.Render("path:  ") + d.Path + "\n")
	if d.NotePath != "" {
		sb.WriteString(theme.Muted.Render("note:  ") + d.NotePath + "\n")
	}
	sb.WriteString(theme.Muted.Render("added: ") + d.AddedAt.Local().Format("2006-01-02 15:04") + "\n")
	sb.WriteString("\n" + theme.Muted.Render("enter: read"))
	return sb.String()
}
