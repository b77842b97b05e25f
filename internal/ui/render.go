package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/babatezpur/todod/internal/model"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

const helpMarkdown = `# todod keys

| key | action |
|-----|--------|
| j/k | move selection |
| a   | quick add (opens palette) |
| c   | complete selected |
| u   | reopen selected |
| s   | snooze selected reminder |
| d   | delete selected |
| f   | cycle filter (all/active/completed) |
| tab | cycle sort order |
| /   | command palette |
| r   | refresh |
| q   | quit |

Palette commands: ` + "`add <title> [due:...] [remind:...] [prio:...]`, `done <id>`, `snooze <id> [min]`, `sort <option>`, `search <text>`, `filter <all|active|completed>`" + `
`

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	lines := []string{
		headerStyle.Render(m.renderHeader()),
		panelStyle.Width(72).Render(m.renderTaskList()),
	}

	if alerts := m.renderAlerts(); alerts != "" {
		lines = append(lines, panelStyle.Render(alerts))
	}
	if m.Palette.Active {
		lines = append(lines, fmt.Sprintf("command: /%s", m.Palette.Input))
	}
	if m.Status.Text != "" {
		if m.Status.IsError {
			lines = append(lines, errorStyle.Render("status: error: "+m.Status.Text))
		} else {
			lines = append(lines, statusStyle.Render("status: "+m.Status.Text))
		}
	}
	if m.HelpVisible {
		lines = append(lines, panelStyle.Render(renderMarkdown(helpMarkdown)))
	}
	lines = append(lines, footerStyle.Render(m.renderFooter()))
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader() string {
	filter := "all"
	if m.Filter != nil {
		if *m.Filter {
			filter = "completed"
		} else {
			filter = "active"
		}
	}
	header := fmt.Sprintf("todod | %d tasks (%d active, %d done, %d overdue) | filter: %s | sort: %s",
		m.Stats.Total, m.Stats.Active, m.Stats.Completed, m.Stats.Overdue, filter, m.Sort.DisplayName())
	if m.Search != "" {
		header += fmt.Sprintf(" | search: %q", m.Search)
	}
	return header
}

func (m Model) renderTaskList() string {
	if len(m.Tasks) == 0 {
		return "(no tasks — press a to add one)"
	}

	var b strings.Builder
	for i, t := range m.Tasks {
		cursor := " "
		if i == m.Cursor {
			cursor = ">"
		}
		check := "[ ]"
		if t.IsCompleted {
			check = "[x]"
		}

		line := fmt.Sprintf("%s %s %s #%d %s", cursor, check, priorityBadge(t.Priority), t.ID, t.Title)
		if !t.DueAt.IsZero() {
			line += " due:" + t.DueAt.Local().Format("Jan 02 15:04")
		}
		if t.HasReminder() {
			line += " rem:" + t.ReminderAt.Local().Format("Jan 02 15:04")
		}

		switch {
		case t.IsCompleted:
			line = doneStyle.Render(line)
		case i == m.Cursor:
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(m.Tasks)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderAlerts() string {
	if len(m.ActiveAlerts) == 0 {
		return ""
	}
	ids := make([]int64, 0, len(m.ActiveAlerts))
	for id := range m.ActiveAlerts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString("reminders due:\n")
	for i, id := range ids {
		a := m.ActiveAlerts[id]
		b.WriteString(fmt.Sprintf("! %s #%d %s  [c]omplete [s]nooze", priorityBadge(a.Priority), a.TaskID, a.Title))
		if i < len(ids)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderFooter() string {
	return fmt.Sprintf("keys: %s/%s move | a add | %s done | %s snooze | %s del | %s filter | %s sort | / cmd | %s help | %s quit",
		m.Keys.Down, m.Keys.Up, m.Keys.Complete, m.Keys.Snooze, m.Keys.Delete, m.Keys.Filter, m.Keys.Sort, m.Keys.Help, m.Keys.Quit)
}

func priorityBadge(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return highStyle.Render("[H]")
	case model.PriorityLow:
		return lowStyle.Render("[L]")
	default:
		return mediumStyle.Render("[M]")
	}
}

func renderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
