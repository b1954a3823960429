// Package tui renders the live watch dashboard: tasks grouped by wave,
// refreshed from disk on an interval. The dashboard is read-only; it never
// mutates task records.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/teamwork/internal/store"
	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Status icons for task states.
const (
	iconOpen     = "[○]"
	iconProgress = "[●]"
	iconResolved = "[✓]"
	iconFailed   = "[✗]"
)

// WatchModel is the bubbletea model for the watch dashboard.
type WatchModel struct {
	store   *store.Store
	refresh time.Duration

	tasks   map[string]*models.Task
	waves   []models.Wave
	loadErr error
	width   int

	spin spinner.Model

	titleStyle    lipgloss.Style
	waveStyle     lipgloss.Style
	openStyle     lipgloss.Style
	progressStyle lipgloss.Style
	resolvedStyle lipgloss.Style
	failedStyle   lipgloss.Style
	dimStyle      lipgloss.Style
	errStyle      lipgloss.Style
}

// NewWatch creates a watch dashboard over the given store.
func NewWatch(s *store.Store, refresh time.Duration) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return WatchModel{
		store:   s,
		refresh: refresh,
		spin:    sp,
		width:   80,

		titleStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		waveStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		openStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		progressStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		resolvedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		failedStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		errStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// tickMsg triggers a periodic reload from disk.
type tickMsg time.Time

// snapshotMsg carries one reload of tasks and waves.
type snapshotMsg struct {
	tasks map[string]*models.Task
	waves []models.Wave
	err   error
}

func (m WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.store.List()
		if err != nil {
			return snapshotMsg{err: err}
		}
		byID := make(map[string]*models.Task, len(tasks))
		for _, t := range tasks {
			byID[t.ID] = t
		}
		waves, err := m.store.LoadWaves()
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{tasks: byID, waves: waves}
	}
}

// Init starts the spinner, the first load, and the refresh ticker.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCmd(), m.tickCmd())
}

// Update handles key, tick and snapshot messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.loadCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), m.tickCmd())

	case snapshotMsg:
		m.tasks = msg.tasks
		m.waves = msg.waves
		m.loadErr = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(m.titleStyle.Render("teamwork watch"))
	b.WriteString(m.dimStyle.Render(fmt.Sprintf("  %s", m.store.Root())))
	b.WriteString("\n\n")

	if m.loadErr != nil {
		b.WriteString(m.errStyle.Render(fmt.Sprintf("load error: %v", m.loadErr)))
		b.WriteString("\n")
	}

	switch {
	case len(m.tasks) == 0:
		b.WriteString(m.dimStyle.Render("no tasks yet"))
		b.WriteString("\n")
	case len(m.waves) == 0:
		b.WriteString(m.dimStyle.Render("no wave partition - run 'teamwork waves'"))
		b.WriteString("\n")
		for _, t := range sortedTasks(m.tasks) {
			b.WriteString(m.renderTask(t))
		}
	default:
		for _, w := range m.waves {
			b.WriteString(m.waveStyle.Render(fmt.Sprintf("Wave %d", w.Index)))
			b.WriteString(m.dimStyle.Render(fmt.Sprintf("  [%s]", w.Status)))
			b.WriteString("\n")
			for _, id := range w.TaskIDs {
				if t, ok := m.tasks[id]; ok {
					b.WriteString(m.renderTask(t))
				} else {
					b.WriteString(m.dimStyle.Render(fmt.Sprintf("  %s %s (missing)", iconFailed, id)))
					b.WriteString("\n")
				}
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(m.dimStyle.Render("r refresh - q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m WatchModel) renderTask(t *models.Task) string {
	var icon string
	var style lipgloss.Style
	switch t.Status {
	case models.TaskStatusInProgress:
		icon, style = iconProgress, m.progressStyle
	case models.TaskStatusResolved:
		icon, style = iconResolved, m.resolvedStyle
	case models.TaskStatusFailed:
		icon, style = iconFailed, m.failedStyle
	default:
		icon, style = iconOpen, m.openStyle
	}

	line := fmt.Sprintf("  %s %-12s %s", icon, t.ID, t.Subject)
	if t.Owner != "" {
		line += fmt.Sprintf("  (%s)", t.Owner)
	}
	if m.width > 4 && len(line) > m.width-2 {
		line = line[:m.width-2] + "…"
	}
	return style.Render(line) + "\n"
}

func sortedTasks(byID map[string]*models.Task) []*models.Task {
	out := make([]*models.Task, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
