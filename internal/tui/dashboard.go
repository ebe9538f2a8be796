// Package tui implements the terminal dashboard. One Bubbletea program
// renders every target's latest snapshot from the shared store, refreshed
// on a fixed tick; the poll loops keep running underneath it.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/billdonner/server-monitor/internal/domain"
	"github.com/billdonner/server-monitor/internal/health"
	"github.com/billdonner/server-monitor/internal/store"
	"github.com/billdonner/server-monitor/internal/tui/components"
	"github.com/billdonner/server-monitor/internal/tui/styles"
)

// redrawEvery is the cadence at which the dashboard re-reads the store.
// Decoupled from the per-target poll cadences: the view just shows
// whatever the store holds right now.
const redrawEvery = time.Second

// Refresher triggers immediate polls outside the scheduled cadence.
type Refresher interface {
	RefreshNow(name string)
	RefreshAll()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(redrawEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type dashModel struct {
	store     *store.Store
	refresher Refresher

	snapshots []domain.Snapshot
	summary   health.Summary

	spinner spinner.Model
	width   int
	height  int
	scroll  int
	status  string
}

// RunDashboard starts the dashboard TUI. It stays open until the user
// quits; cancelling the surrounding context (e.g. the scheduler's) does
// not tear it down.
func RunDashboard(st *store.Store, refresher Refresher) error {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	m := dashModel{
		store:     st,
		refresher: refresher,
		spinner:   sp,
	}
	m.reload()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func (m *dashModel) reload() {
	m.snapshots = m.store.List()
	m.summary = health.Evaluate(m.store)
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.reload()
		m.status = ""
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.refresher != nil {
				m.refresher.RefreshAll()
				m.status = "refreshing all targets..."
			}
			return m, nil
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
			return m, nil
		case "down", "j":
			m.scroll++
			return m, nil
		}
	}

	return m, nil
}

func (m dashModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, m.healthBadge())
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "r", Desc: "refresh"},
		{Key: "↑/↓", Desc: "scroll"},
		{Key: "q", Desc: "quit"},
	})

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	contentH := m.height - headerH - footerH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent(contentH)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m dashModel) healthBadge() string {
	state := styles.HealthStyle(m.summary.State).Render(strings.ToUpper(m.summary.State.String()))
	counts := styles.Subtitle.Render(
		fmt.Sprintf("%d/%d healthy", m.summary.TargetsHealthy, m.summary.TargetsTotal))
	return counts + "  " + state
}

func (m dashModel) renderContent(contentH int) string {
	if len(m.snapshots) == 0 {
		text := m.spinner.View() + "  waiting for first poll results..."
		return lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render(text))
	}

	var cards []string
	for _, snap := range m.snapshots {
		cards = append(cards, components.TargetCard(snap, m.width))
	}
	if m.status != "" {
		cards = append(cards, styles.MutedText.Render(m.status))
	}

	lines := strings.Split(strings.Join(cards, "\n"), "\n")

	// Clamp scroll so the last page stays full.
	maxScroll := max(len(lines)-contentH, 0)
	scroll := min(m.scroll, maxScroll)
	end := min(scroll+contentH, len(lines))

	return strings.Join(lines[scroll:end], "\n")
}
