// Package theme holds the Catppuccin Mocha palette and the shared styles of
// the terminal UI.
package theme

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Error = lipgloss.NewStyle().Foreground(Red)
	Good  = lipgloss.NewStyle().Foreground(Green)

	barStyle = lipgloss.NewStyle().Foreground(Lavender)
)

// State colors a session state label.
func State(state string) string {
	switch state {
	case "active":
		return Good.Render("● " + state)
	case "paused":
		return lipgloss.NewStyle().Foreground(Yellow).Render("❚❚ " + state)
	default:
		return Muted.Render("○ " + state)
	}
}

// Bar renders value as a horizontal bar scaled against max.
func Bar(value, max, width int) string {
	if max <= 0 || width <= 0 || value <= 0 {
		return ""
	}
	n := value * width / max
	if n == 0 {
		n = 1
	}
	return barStyle.Render(strings.Repeat("█", n))
}

// Duration formats milliseconds as a compact h/m/s string.
func Duration(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)
	if d >= time.Hour {
		return d.Truncate(time.Minute).String()
	}
	return d.String()
}
