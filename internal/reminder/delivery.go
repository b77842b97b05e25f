package reminder

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/alarm"
	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/notify"
)

// Delivery runs when a registered timer fires. It re-reads the task
// and only surfaces an alert if the task still exists and is not
// completed; that re-read is the sole defense against the race between
// a firing timer and a concurrent complete/delete.
type Delivery struct {
	store     TaskStore
	presenter notify.Presenter
	logger    *log.Logger
}

func NewDelivery(store TaskStore, presenter notify.Presenter, logger *log.Logger) *Delivery {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Delivery{store: store, presenter: presenter, logger: logger}
}

// HandleFiring validates the payload, re-reads the task, and presents
// the alert. It never panics and never returns an error: a delivery
// failure must not take down the host process.
func (d *Delivery) HandleFiring(ctx context.Context, firing alarm.Firing) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during reminder delivery", "key", firing.Key, "panic", r)
		}
	}()

	taskID := firing.Payload.TaskID
	if taskID <= 0 {
		taskID = firing.Key
	}
	if taskID <= 0 {
		d.logger.Error("firing carried no task id, dropping", "key", firing.Key)
		return
	}

	task, err := d.store.GetByID(ctx, taskID)
	if errors.Is(err, ErrTaskNotFound) {
		d.logger.Debug("task deleted before reminder fired, suppressing", "task_id", taskID)
		return
	}
	if err != nil {
		d.logger.Error("failed to re-read task for delivery", "task_id", taskID, "err", err)
		return
	}
	if task.IsCompleted {
		d.logger.Debug("task completed before reminder fired, suppressing", "task_id", taskID)
		return
	}

	// The fresh read is authoritative; the scheduling-time snapshot is
	// only a fallback for display text.
	title := task.Title
	description := task.Description
	priority := task.Priority
	if title == "" {
		title = firing.Payload.Title
		description = firing.Payload.Description
		priority = model.Priority(firing.Payload.Priority)
	}

	if err := d.presenter.Show(taskID, title, description, priority); err != nil {
		d.logger.Error("failed to present reminder", "task_id", taskID, "err", err)
		return
	}
	d.logger.Info("reminder delivered", "task_id", taskID, "title", title)
}
