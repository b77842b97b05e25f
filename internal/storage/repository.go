package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in Task) (int64, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	UpdateTask(ctx context.Context, in Task) error
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)

	MarkComplete(ctx context.Context, id int64, at time.Time) error
	MarkIncomplete(ctx context.Context, id int64, at time.Time) error

	DeleteCompleted(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Statistics(ctx context.Context, now time.Time) (Statistics, error)
}
