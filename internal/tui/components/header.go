// Package components provides reusable render-only helpers (not tea.Model)
// used by the dashboard model to compose views.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/billdonner/server-monitor/internal/tui/styles"
)

// Header renders the application header bar.
//
//	┌──────────────────────────────────────────┐
//	│  server-monitor                 3/4 OK   │
//	└──────────────────────────────────────────┘
func Header(width int, status string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("server-monitor")

	right := ""
	if status != "" {
		right = status
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	innerWidth := width - 4 // account for padding
	gap := max(innerWidth-leftLen-rightLen, 1)

	content := left + strings.Repeat(" ", gap) + right

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderBottom(true).
		BorderForeground(styles.DimGray).
		Render(content)
}
