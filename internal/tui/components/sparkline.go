package components

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"github.com/billdonner/server-monitor/internal/tui/styles"
)

// Sparkline renders a compact one-line trend for a metric's recent values.
// Returns an empty string when there is not yet enough data to show a trend.
func Sparkline(values []float64, width int) string {
	if len(values) < 2 || width < 2 {
		return ""
	}
	if width > len(values) {
		width = len(values)
	}

	sl := sparkline.New(width, 1,
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(styles.Blue)),
	)
	sl.PushAll(values)
	sl.Draw()
	return sl.View()
}
