package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"pagetrack/internal/ui/theme"
)

// CommandMsg carries a submitted palette line.
type CommandMsg struct{ Line string }

// DismissMsg reports the palette closed without a command.
type DismissMsg struct{}

const maxSuggestions = 5

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	suggestionStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
	selectedStyle   = lipgloss.NewStyle().Foreground(theme.Lavender).Bold(true)
)

// Commands lists what the app model's palette handler understands.
var Commands = []string{
	"open <document-id>",
	"page <n>",
	"pause",
	"resume",
	"flush",
	"close",
	"dashboard",
	"library:refresh",
	"sinks:doctor",
}

// Palette is a one-line command prompt with fuzzy suggestions, tab
// completion and a history of submitted lines (up/down).
type Palette struct {
	input    textinput.Model
	visible  bool
	width    int
	selected int
	history  []string
	recall   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "command"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.selected = 0
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}

	switch key.String() {
	case "esc":
		p.close()
		return p, func() tea.Msg { return DismissMsg{} }
	case "enter":
		line := strings.TrimSpace(p.input.Value())
		p.close()
		if line == "" {
			return p, func() tea.Msg { return DismissMsg{} }
		}
		p.history = append(p.history, line)
		return p, func() tea.Msg { return CommandMsg{Line: line} }
	case "tab":
		if s := Suggest(p.input.Value(), maxSuggestions); p.selected < len(s) {
			p.input.SetValue(commandWord(s[p.selected]) + " ")
			p.input.CursorEnd()
		}
		return p, nil
	case "ctrl+n":
		p.selected = min(p.selected+1, max(len(Suggest(p.input.Value(), maxSuggestions))-1, 0))
		return p, nil
	case "ctrl+p":
		p.selected = max(p.selected-1, 0)
		return p, nil
	case "up":
		if p.recall > 0 {
			p.recall--
			p.input.SetValue(p.history[p.recall])
			p.input.CursorEnd()
		}
		return p, nil
	case "down":
		if p.recall < len(p.history)-1 {
			p.recall++
			p.input.SetValue(p.history[p.recall])
		} else {
			p.recall = len(p.history)
			p.input.SetValue("")
		}
		p.input.CursorEnd()
		return p, nil
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.selected = 0
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

// Value is the line typed so far.
func (p Palette) Value() string { return p.input.Value() }

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	lines := []string{theme.Title.Render("Command"), p.input.View()}
	for i, s := range Suggest(p.input.Value(), maxSuggestions) {
		if i == p.selected {
			lines = append(lines, selectedStyle.Render("› "+s))
		} else {
			lines = append(lines, suggestionStyle.Render("  "+s))
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(strings.Join(lines, "\n"))
}

// Suggest ranks Commands against the first word typed. An empty line lists
// the first limit commands in order.
func Suggest(typed string, limit int) []string {
	word := commandWord(strings.TrimSpace(typed))
	if word == "" {
		return Commands[:min(limit, len(Commands))]
	}
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = commandWord(c)
	}
	var out []string
	for _, m := range fuzzy.Find(word, names) {
		out = append(out, Commands[m.Index])
		if len(out) == limit {
			break
		}
	}
	return out
}

func commandWord(line string) string {
	word, _, _ := strings.Cut(line, " ")
	return word
}
