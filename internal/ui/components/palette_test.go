package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"pagetrack/internal/ui/components"
)

func typeText(p components.Palette, text string) components.Palette {
	for _, r := range text {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return p
}

func TestSuggestRanksCommandNames(t *testing.T) {
	t.Parallel()
	require.Len(t, components.Suggest("", 3), 3)
	require.Equal(t, "pause", components.Suggest("pau", 5)[0])
	require.Equal(t, "library:refresh", components.Suggest("lib", 5)[0])
	require.Equal(t, "sinks:doctor", components.Suggest("doc", 5)[0])
	require.Empty(t, components.Suggest("zzz", 5))
}

func TestPaletteSubmitsAndRecallsHistory(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	_ = p.Open()
	p = typeText(p, "page 4")

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, p.Visible())
	require.Equal(t, components.CommandMsg{Line: "page 4"}, cmd())

	_ = p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	require.Equal(t, "page 4", p.Value())
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, "", p.Value())
}

func TestPaletteTabCompletesAndEscDismisses(t *testing.T) {
	t.Parallel()
	p := components.NewPalette()
	_ = p.Open()
	p = typeText(p, "ope")
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "open ", p.Value())

	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, p.Visible())
	require.Equal(t, components.DismissMsg{}, cmd())
}
