package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/tui/styles"
)

const (
	labelWidth = 22
	valueWidth = 14
	sparkWidth = 20
)

// TargetCard renders one target's snapshot as a bordered panel: a title
// row with reachability and version, then one row per metric with a
// trend sparkline for numeric values.
func TargetCard(snap domain.Snapshot, width int) string {
	inner := width - 4 // border + padding
	if inner < 20 {
		inner = 20
	}

	title := styles.Title.Render(snap.TargetName) + "  " + styles.StatusIndicator(snap.Reachable)
	meta := metaLine(snap)

	var rows []string
	rows = append(rows, title)
	if meta != "" {
		rows = append(rows, styles.MutedText.Render(meta))
	}

	if !snap.Reachable {
		msg := ansi.Truncate(snap.Error, inner, "…")
		rows = append(rows, styles.ErrorText.Render(msg))
		return styles.CardDegraded.Width(inner).Render(strings.Join(rows, "\n"))
	}

	for _, m := range snap.Metrics {
		rows = append(rows, metricRow(m, inner))
	}

	return styles.Card.Width(inner).Render(strings.Join(rows, "\n"))
}

func metaLine(snap domain.Snapshot) string {
	var parts []string
	if snap.Version != "" {
		parts = append(parts, "v"+snap.Version)
	}
	if snap.UptimeSeconds > 0 {
		parts = append(parts, "up "+formatUptime(snap.UptimeSeconds))
	}
	if !snap.ObservedAt.IsZero() {
		parts = append(parts, "seen "+snap.ObservedAt.Format("15:04:05"))
	}
	return strings.Join(parts, "  ")
}

func metricRow(m domain.MetricSample, width int) string {
	label := ansi.Truncate(m.Label, labelWidth, "…")
	label += strings.Repeat(" ", max(labelWidth-lipgloss.Width(label), 0))

	value := m.DisplayValue()
	if m.Unit != "" {
		value += " " + m.Unit
	}
	value = ansi.Truncate(value, valueWidth, "…")
	value += strings.Repeat(" ", max(valueWidth-lipgloss.Width(value), 0))

	row := styles.Label.Render(label) + " " + styles.MetricStyle(m.DisplayColor()).Render(value)

	if width >= labelWidth+valueWidth+sparkWidth {
		if spark := Sparkline(m.History, sparkWidth); spark != "" {
			row += " " + spark
		}
	}
	return row
}

// formatUptime renders seconds as the largest two useful units, e.g.
// "3d 4h" or "12m 30s".
func formatUptime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		hours := (d % (24 * time.Hour)) / time.Hour
		return fmt.Sprintf("%dd %dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", d/time.Hour, (d%time.Hour)/time.Minute)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %ds", d/time.Minute, (d%time.Minute)/time.Second)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
