// Package ui implements the bubbletea front end: a single task list
// with a command palette, driven by the task manager and the reminder
// action dispatcher.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/reminder"
	"github.com/babatezpur/todod/internal/storage"
	"github.com/babatezpur/todod/internal/task"
)

// TaskService is the slice of the task manager the TUI needs.
type TaskService interface {
	List(ctx context.Context, opts task.ListOptions) ([]model.Task, error)
	Create(ctx context.Context, in model.Task) (model.Task, error)
	Complete(ctx context.Context, id int64) error
	Incomplete(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Statistics(ctx context.Context) (storage.Statistics, error)
}

// ActionHandler routes notification actions.
type ActionHandler interface {
	Handle(ctx context.Context, action reminder.Action)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type PaletteState struct {
	Active bool
	Input  string
}

type GlobalKeyMap struct {
	Up       string
	Down     string
	Complete string
	Reopen   string
	Snooze   string
	Delete   string
	Filter   string
	Sort     string
	Refresh  string
	Help     string
	Quit     string
}

type Model struct {
	svc     TaskService
	actions ActionHandler
	alerts  <-chan Alert
	toasts  <-chan string

	Tasks  []model.Task
	Cursor int
	Filter *bool
	Search string
	Sort   model.SortOption
	Stats  storage.Statistics

	ActiveAlerts map[int64]Alert
	Palette      PaletteState
	Status       StatusBar
	HelpVisible  bool
	Keys         GlobalKeyMap
	Quitting     bool
	LastError    error

	commandInput textinput.Model
	now          func() time.Time
}

type tasksLoadedMsg struct {
	Tasks []model.Task
	Stats storage.Statistics
	Err   error
}

type toastMsg struct {
	Text string
}

type alertMsg struct {
	Alert Alert
}

type actionDoneMsg struct {
	Status  string
	IsError bool
}

type refreshMsg struct{}

// Deps carries everything the model needs at construction.
type Deps struct {
	Service TaskService
	Actions ActionHandler
	Alerts  <-chan Alert
	Toasts  <-chan string
}

func NewModel(deps Deps) Model {
	input := textinput.New()
	input.Prompt = "/"
	input.CharLimit = 256
	input.Width = 48

	return Model{
		svc:          deps.Service,
		actions:      deps.Actions,
		alerts:       deps.Alerts,
		toasts:       deps.Toasts,
		Sort:         model.SortCreatedDesc,
		ActiveAlerts: make(map[int64]Alert),
		Keys: GlobalKeyMap{
			Up:       "k",
			Down:     "j",
			Complete: "c",
			Reopen:   "u",
			Snooze:   "s",
			Delete:   "d",
			Filter:   "f",
			Sort:     "tab",
			Refresh:  "r",
			Help:     "?",
			Quit:     "q",
		},
		commandInput: input,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasksCmd(), waitAlertCmd(m.alerts), waitToastCmd(m.toasts))
}

func (m Model) loadTasksCmd() tea.Cmd {
	svc := m.svc
	opts := task.ListOptions{Completed: m.Filter, Search: m.Search, Sort: m.Sort}
	return func() tea.Msg {
		ctx := context.Background()
		tasks, err := svc.List(ctx, opts)
		if err != nil {
			return tasksLoadedMsg{Err: err}
		}
		stats, err := svc.Statistics(ctx)
		if err != nil {
			return tasksLoadedMsg{Err: err}
		}
		return tasksLoadedMsg{Tasks: tasks, Stats: stats}
	}
}

func waitAlertCmd(ch <-chan Alert) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-ch
		if !ok {
			return nil
		}
		return alertMsg{Alert: a}
	}
}

func waitToastCmd(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return nil
		}
		return toastMsg{Text: text}
	}
}

// actionCmd runs a manager operation off the update loop and reports
// the outcome as a status message followed by a reload.
func actionCmd(fn func(context.Context) error, okText string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return actionDoneMsg{Status: err.Error(), IsError: true}
		}
		return actionDoneMsg{Status: okText}
	}
}

func (m Model) selectedTask() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.Cursor], true
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}
