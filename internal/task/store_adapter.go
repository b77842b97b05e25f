package task

import (
	"context"
	"errors"
	"time"

	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/reminder"
	"github.com/babatezpur/todod/internal/storage"
)

// StoreAdapter exposes the repository through the narrow contract the
// reminder subsystem depends on, translating the storage sentinel.
type StoreAdapter struct {
	repo storage.Repository
	now  func() time.Time
}

func NewStoreAdapter(repo storage.Repository) *StoreAdapter {
	return &StoreAdapter{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (a *StoreAdapter) GetByID(ctx context.Context, id int64) (model.Task, error) {
	got, err := a.repo.GetTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Task{}, reminder.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	return toModel(got), nil
}

func (a *StoreAdapter) ListAll(ctx context.Context) ([]model.Task, error) {
	rows, err := a.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, toModel(row))
	}
	return out, nil
}

func (a *StoreAdapter) Update(ctx context.Context, in model.Task) error {
	in.UpdatedAt = a.now()
	err := a.repo.UpdateTask(ctx, fromModel(in))
	if errors.Is(err, storage.ErrNotFound) {
		return reminder.ErrTaskNotFound
	}
	return err
}

func (a *StoreAdapter) MarkComplete(ctx context.Context, id int64) error {
	err := a.repo.MarkComplete(ctx, id, a.now())
	if errors.Is(err, storage.ErrNotFound) {
		return reminder.ErrTaskNotFound
	}
	return err
}

func toModel(in storage.Task) model.Task {
	return model.Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    model.Priority(in.Priority),
		DueAt:       in.DueAt,
		ReminderAt:  in.ReminderAt,
		IsCompleted: in.IsCompleted,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
}

func fromModel(in model.Task) storage.Task {
	return storage.Task{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    string(in.Priority),
		DueAt:       in.DueAt,
		ReminderAt:  in.ReminderAt,
		IsCompleted: in.IsCompleted,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
	}
}
