package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/health"
)

// --- Typography ---

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	// Subtitle is used for secondary headings.
	Subtitle = lipgloss.NewStyle().
			Foreground(Gray)

	// Label is used for metric names inside a card.
	Label = lipgloss.NewStyle().
		Foreground(Gray)

	// MutedText is for help text, hints, and less important info.
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// ErrorText is for error messages.
	ErrorText = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)
)

// --- Metric value colors ---

// MetricStyle maps a configured display color to a lipgloss style.
func MetricStyle(c domain.Color) lipgloss.Style {
	switch c {
	case domain.ColorRed:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	case domain.ColorYellow:
		return lipgloss.NewStyle().Foreground(Yellow)
	case domain.ColorGreen:
		return lipgloss.NewStyle().Foreground(Green)
	case domain.ColorCyan:
		return lipgloss.NewStyle().Foreground(Cyan)
	case domain.ColorMagenta:
		return lipgloss.NewStyle().Foreground(Magenta)
	case domain.ColorBlue:
		return lipgloss.NewStyle().Foreground(Blue)
	default:
		return lipgloss.NewStyle().Foreground(White)
	}
}

// --- Status badges ---

// HealthStyle returns the style for the aggregate health state.
func HealthStyle(state health.State) lipgloss.Style {
	switch state {
	case health.StateOK:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case health.StateDegraded:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Yellow)
	}
}

// StatusIndicator returns a small dot + text colored for reachability.
func StatusIndicator(reachable bool) string {
	if reachable {
		style := lipgloss.NewStyle().Foreground(Green)
		return style.Render("●") + " " + style.Render("up")
	}
	style := lipgloss.NewStyle().Foreground(Red).Bold(true)
	return style.Render("●") + " " + style.Render("down")
}

// --- Layout components ---

var (
	// Card is a rounded-border panel for one target.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(0, 1)

	// CardDegraded marks an unreachable target's panel.
	CardDegraded = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(0, 1)
)

// --- Key binding hint styles ---

var (
	// KeyStyle is used for key labels in the footer (e.g. "q").
	KeyStyle = lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true)

	// KeyDescStyle is used for key descriptions in the footer (e.g. "quit").
	KeyDescStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// KeySepStyle is used for separators between key bindings.
	KeySepStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// FormatKeyBinding formats a single key binding for the footer.
func FormatKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + KeyDescStyle.Render(desc)
}
