package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/babatezpur/todod/internal/commands"
	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/reminder"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)

	case tasksLoadedMsg:
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			return m, nil
		}
		m.Tasks = typed.Tasks
		m.Stats = typed.Stats
		m.clampCursor()
		return m, nil

	case actionDoneMsg:
		m.Status = StatusBar{Text: typed.Status, IsError: typed.IsError}
		return m, m.loadTasksCmd()

	case toastMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: false}
		return m, tea.Batch(m.loadTasksCmd(), waitToastCmd(m.toasts))

	case alertMsg:
		if typed.Alert.Active {
			m.ActiveAlerts[typed.Alert.TaskID] = typed.Alert
		} else {
			delete(m.ActiveAlerts, typed.Alert.TaskID)
		}
		return m, waitAlertCmd(m.alerts)

	case refreshMsg:
		return m, m.loadTasksCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		return m, nil
	case "a":
		m.Palette.Active = true
		m.Palette.Input = "add "
		m.commandInput.SetValue("add ")
		m.commandInput.Focus()
		return m, nil
	case m.Keys.Down, "down":
		if m.Cursor < len(m.Tasks)-1 {
			m.Cursor++
		}
		return m, nil
	case m.Keys.Up, "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case m.Keys.Complete:
		selected, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, actionCmd(func(ctx context.Context) error {
			return m.svc.Complete(ctx, selected.ID)
		}, fmt.Sprintf("completed: %s", selected.Title))
	case m.Keys.Reopen:
		selected, ok := m.selectedTask()
		if !ok || !selected.IsCompleted {
			return m, nil
		}
		return m, actionCmd(func(ctx context.Context) error {
			return m.svc.Incomplete(ctx, selected.ID)
		}, fmt.Sprintf("reopened: %s", selected.Title))
	case m.Keys.Snooze:
		selected, ok := m.selectedTask()
		if !ok || !selected.HasReminder() {
			m.Status = StatusBar{Text: "no reminder to snooze", IsError: false}
			return m, nil
		}
		actions := m.actions
		return m, func() tea.Msg {
			actions.Handle(context.Background(), reminder.Action{Kind: reminder.ActionSnooze, TaskID: selected.ID})
			return refreshMsg{}
		}
	case m.Keys.Delete:
		selected, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, actionCmd(func(ctx context.Context) error {
			return m.svc.Delete(ctx, selected.ID)
		}, fmt.Sprintf("deleted: %s", selected.Title))
	case m.Keys.Filter:
		m.Filter = nextFilter(m.Filter)
		m.Cursor = 0
		return m, m.loadTasksCmd()
	case m.Keys.Sort:
		m.Sort = nextSort(m.Sort)
		return m, m.loadTasksCmd()
	case m.Keys.Refresh:
		return m, m.loadTasksCmd()
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	reload := false
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			in := model.Task{
				Title:      a.Title,
				Priority:   a.Priority,
				DueAt:      a.DueAt,
				ReminderAt: a.ReminderAt,
			}
			if in.DueAt.IsZero() {
				in.DueAt = m.now().Add(24 * time.Hour)
			}
			created, err := m.svc.Create(context.Background(), in)
			if err != nil {
				return commands.Result{}, err
			}
			reload = true
			return commands.Result{Message: fmt.Sprintf("added task #%d: %s", created.ID, created.Title)}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			if err := m.svc.Complete(context.Background(), a.TaskID); err != nil {
				return commands.Result{}, err
			}
			reload = true
			return commands.Result{Message: fmt.Sprintf("completed task #%d", a.TaskID)}, nil
		},
		Snooze: func(a commands.SnoozeArgs) (commands.Result, error) {
			m.actions.Handle(context.Background(), reminder.Action{
				Kind:      reminder.ActionSnooze,
				TaskID:    a.TaskID,
				SnoozeFor: time.Duration(a.Minutes) * time.Minute,
			})
			reload = true
			return commands.Result{Message: fmt.Sprintf("snooze requested for task #%d", a.TaskID)}, nil
		},
		Sort: func(a commands.SortArgs) (commands.Result, error) {
			m.Sort = a.Option
			reload = true
			return commands.Result{Message: fmt.Sprintf("sorted by %s", a.Option.DisplayName())}, nil
		},
		Search: func(a commands.SearchArgs) (commands.Result, error) {
			m.Search = a.Query
			m.Cursor = 0
			reload = true
			if a.Query == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("searching: %s", a.Query)}, nil
		},
		Filter: func(a commands.FilterArgs) (commands.Result, error) {
			m.Filter = a.Completed
			m.Cursor = 0
			reload = true
			return commands.Result{Message: "filter applied"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message, IsError: false}
	}

	if reload {
		return m, m.loadTasksCmd()
	}
	return m, nil
}

// nextFilter cycles all -> active -> completed -> all.
func nextFilter(current *bool) *bool {
	switch {
	case current == nil:
		v := false
		return &v
	case !*current:
		v := true
		return &v
	default:
		return nil
	}
}

func nextSort(current model.SortOption) model.SortOption {
	options := model.SortOptions()
	for i, opt := range options {
		if opt == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
