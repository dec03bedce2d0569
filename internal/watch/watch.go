// Package watch renders a live-refreshing view of task status, adapted
// from the teacher's orchestrator TUI but polling the Store instead of
// an in-process worker pool.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/pkg/models"
)

var (
	orbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	headerTextStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Padding(1, 2)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyles = map[models.TaskStatus]lipgloss.Style{
		models.TaskStatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		models.TaskStatusBlocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.TaskStatusAssigned:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.TaskStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		models.TaskStatusInReview:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.TaskStatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.TaskStatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type tickMsg time.Time

type snapshotMsg struct {
	summary *store.Summary
	tasks   []*models.Task
	err     error
}

type model struct {
	st         *store.Store
	interval   time.Duration
	maxWorkers int
	width      int
	height     int
	ready      bool
	quitting   bool
	err        error
	summary    *store.Summary
	tasks      []*models.Task
}

func newModel(st *store.Store, interval time.Duration, maxWorkers int) *model {
	return &model{st: st, interval: interval, maxWorkers: maxWorkers}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tickEvery())
}

func (m *model) tickEvery() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		summary, err := m.st.Summarize(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		tasks, err := m.st.ListTasks(ctx, store.TaskFilter{})
		if err != nil {
			return snapshotMsg{err: err}
		}
		return snapshotMsg{summary: summary, tasks: tasks}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
	case tickMsg:
		return m, tea.Batch(m.poll(), m.tickEvery())
	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = msg.summary
		m.tasks = msg.tasks
	}
	return m, nil
}

func (m *model) View() string {
	if !m.ready {
		return "Loading task status...\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if m.summary == nil {
		return "Waiting for first snapshot...\n"
	}

	orb := orbStyle.Render("⬤")
	headerText := fmt.Sprintf("Task Coordinator | Groups: %d | Tasks: %d | Suggested workers: %d",
		m.summary.GroupCount, m.summary.TaskCount, m.maxWorkers)
	header := headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Center, orb, "  ", headerTextStyle.Render(headerText)))

	var counts strings.Builder
	for _, status := range m.summary.Order {
		style := statusStyles[status]
		counts.WriteString(style.Render(fmt.Sprintf("%s:%d  ", status, m.summary.ByStatus[status])))
	}

	var rows strings.Builder
	rows.WriteString(fmt.Sprintf("%-4s %-30s %-12s %-16s %5s\n", "#", "TITLE", "STATUS", "ASSIGNED", "PROG"))
	for _, t := range m.tasks {
		assigned := ""
		if t.AssignedTo != nil {
			assigned = *t.AssignedTo
		}
		title := t.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		style := statusStyles[t.Status]
		rows.WriteString(fmt.Sprintf("%-4d %-30s %-12s %-16s %4d%%\n",
			t.Sequence, title, style.Render(string(t.Status)), assigned, t.Progress))
	}

	help := helpStyle.Render("Press 'q' to quit")

	return header + "\n" + counts.String() + "\n\n" + rows.String() + "\n" + help
}

// Run starts the dashboard, polling st on the given interval until the
// user quits or ctx is canceled. maxWorkers is shown as an advisory
// concurrency hint only; the coordinator enforces no scheduling policy.
func Run(ctx context.Context, st *store.Store, interval time.Duration, maxWorkers int) error {
	p := tea.NewProgram(newModel(st, interval, maxWorkers))

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
