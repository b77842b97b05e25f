// Package task implements the use-case layer: validation and
// orchestration in front of the store, owning the reminder side
// effects of every task mutation.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/notify"
	"github.com/babatezpur/todod/internal/reminder"
	"github.com/babatezpur/todod/internal/storage"
)

var (
	ErrDueInPast        = errors.New("task: due date cannot be in the past")
	ErrReminderAfterDue = errors.New("task: reminder cannot be after the due date")
	ErrSearchTooLong    = errors.New("task: search query too long")
	ErrSearchInvalid    = errors.New("task: search query contains invalid characters")
)

const maxSearchLength = 100

type ListOptions struct {
	Completed *bool
	Search    string
	Sort      model.SortOption
}

type Manager struct {
	repo      storage.Repository
	scheduler *reminder.Scheduler
	presenter notify.Presenter
	logger    *log.Logger
	now       func() time.Time
}

func NewManager(repo storage.Repository, scheduler *reminder.Scheduler, presenter notify.Presenter, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		repo:      repo,
		scheduler: scheduler,
		presenter: presenter,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and inserts a task, then registers its reminder if
// one is set.
func (m *Manager) Create(ctx context.Context, in model.Task) (model.Task, error) {
	if err := m.validate(in); err != nil {
		return model.Task{}, err
	}

	now := m.now()
	in.CreatedAt = now
	in.UpdatedAt = now
	in.IsCompleted = false

	id, err := m.repo.CreateTask(ctx, fromModel(in))
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	in.ID = id

	if in.HasReminder() {
		m.scheduler.Schedule(in)
	}
	m.logger.Info("task created", "task_id", id, "title", in.Title)
	return in, nil
}

// Update validates and persists the task, then routes the reminder
// change through the scheduler's cancel-then-schedule path. This is
// the single serialized path for reminder mutation, so a cleared
// reminder always clears its timer.
func (m *Manager) Update(ctx context.Context, in model.Task) error {
	if err := m.validate(in); err != nil {
		return err
	}

	in.UpdatedAt = m.now()
	if err := m.repo.UpdateTask(ctx, fromModel(in)); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	m.scheduler.Update(in)
	m.logger.Info("task updated", "task_id", in.ID)
	return nil
}

func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	m.scheduler.Cancel(id)
	m.presenter.Dismiss(id)
	m.logger.Info("task deleted", "task_id", id)
	return nil
}

// Complete marks the task done, then clears its timer and alert. The
// write lands first so a timer firing mid-transition self-suppresses.
func (m *Manager) Complete(ctx context.Context, id int64) error {
	if err := m.repo.MarkComplete(ctx, id, m.now()); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	m.scheduler.Cancel(id)
	m.presenter.Dismiss(id)
	m.logger.Info("task completed", "task_id", id)
	return nil
}

// Incomplete reactivates a task and restores its timer if the
// reminder is still in the future.
func (m *Manager) Incomplete(ctx context.Context, id int64) error {
	if err := m.repo.MarkIncomplete(ctx, id, m.now()); err != nil {
		return fmt.Errorf("reactivate task: %w", err)
	}
	got, err := m.repo.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("reload reactivated task: %w", err)
	}
	m.scheduler.Update(toModel(got))
	m.logger.Info("task reactivated", "task_id", id)
	return nil
}

func (m *Manager) Get(ctx context.Context, id int64) (model.Task, error) {
	got, err := m.repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	return toModel(got), nil
}

func (m *Manager) List(ctx context.Context, opts ListOptions) ([]model.Task, error) {
	search, err := CleanSearchQuery(opts.Search)
	if err != nil {
		return nil, err
	}
	sort := opts.Sort
	if !sort.IsValid() {
		sort = model.SortCreatedDesc
	}

	rows, err := m.repo.ListTasks(ctx, storage.TaskListFilter{
		Completed: opts.Completed,
		Search:    search,
		Sort:      string(sort),
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, toModel(row))
	}
	return out, nil
}

func (m *Manager) Statistics(ctx context.Context) (storage.Statistics, error) {
	return m.repo.Statistics(ctx, m.now())
}

func (m *Manager) DeleteCompleted(ctx context.Context) (int64, error) {
	removed, err := m.repo.DeleteCompleted(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	m.logger.Info("completed tasks deleted", "count", removed)
	return removed, nil
}

// ClearReminders cancels every registered timer while leaving the
// tasks themselves untouched.
func (m *Manager) ClearReminders(ctx context.Context) (int, error) {
	rows, err := m.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return 0, fmt.Errorf("clear reminders: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if row.ReminderAt != nil {
			ids = append(ids, row.ID)
		}
	}
	return m.scheduler.CancelAll(ids), nil
}

func (m *Manager) validate(in model.Task) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.DueAt.Before(m.now()) {
		return ErrDueInPast
	}
	if in.HasReminder() && in.ReminderAt.After(in.DueAt) {
		return ErrReminderAfterDue
	}
	return nil
}

// CleanSearchQuery trims and validates a search string before it
// reaches the store.
func CleanSearchQuery(query string) (string, error) {
	clean := strings.TrimSpace(query)
	if len([]rune(clean)) > maxSearchLength {
		return "", ErrSearchTooLong
	}
	if strings.ContainsAny(clean, `<>"';`) {
		return "", ErrSearchInvalid
	}
	return clean, nil
}
