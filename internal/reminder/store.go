package reminder

import (
	"context"
	"errors"

	"github.com/babatezpur/todod/internal/model"
)

// ErrTaskNotFound marks a read of a task that no longer exists.
// Delivery and actions treat it as routine stale state, not a failure.
var ErrTaskNotFound = errors.New("reminder: task not found")

// TaskStore is the slice of the persistent store the reminder
// subsystem depends on. Implementations translate their own not-found
// sentinel into ErrTaskNotFound.
type TaskStore interface {
	GetByID(ctx context.Context, id int64) (model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, task model.Task) error
	MarkComplete(ctx context.Context, id int64) error
}
