package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/notify"
)

type ActionKind string

const (
	ActionComplete ActionKind = "complete"
	ActionSnooze   ActionKind = "snooze"
)

// Action is a user response carried on a delivered notification.
// SnoozeFor overrides the configured snooze interval when positive.
type Action struct {
	Kind      ActionKind
	TaskID    int64
	SnoozeFor time.Duration
}

// StatusSink receives transient user-facing messages, the
// toast-equivalent for action outcomes. Background flows never use it.
type StatusSink interface {
	Transient(msg string)
}

type SinkFunc func(string)

func (f SinkFunc) Transient(msg string) { f(msg) }

type nopSink struct{}

func (nopSink) Transient(string) {}

// Dispatcher handles the two notification actions. Store failures are
// logged and surfaced only as a transient message; they are never
// retried and never propagate.
type Dispatcher struct {
	store     TaskStore
	scheduler *Scheduler
	presenter notify.Presenter
	sink      StatusSink
	snooze    time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewDispatcher(store TaskStore, scheduler *Scheduler, presenter notify.Presenter, sink StatusSink, snooze time.Duration, logger *log.Logger) *Dispatcher {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{
		store:     store,
		scheduler: scheduler,
		presenter: presenter,
		sink:      sink,
		snooze:    snooze,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle routes an action. An invalid task id is rejected before any
// store access.
func (d *Dispatcher) Handle(ctx context.Context, action Action) {
	if action.TaskID <= 0 {
		d.logger.Error("action carried invalid task id, dropping", "kind", action.Kind)
		return
	}
	switch action.Kind {
	case ActionComplete:
		d.complete(ctx, action.TaskID)
	case ActionSnooze:
		d.snoozeTask(ctx, action.TaskID, action.SnoozeFor)
	default:
		d.logger.Error("unknown action kind", "kind", action.Kind, "task_id", action.TaskID)
	}
}

// complete writes the completion first and cancels the timer after, so
// a timer firing mid-transition re-reads the task as completed and
// suppresses itself. The two steps commute in outcome.
func (d *Dispatcher) complete(ctx context.Context, taskID int64) {
	if err := d.store.MarkComplete(ctx, taskID); err != nil {
		d.logger.Error("failed to complete task from notification", "task_id", taskID, "err", err)
		d.sink.Transient("Failed to complete task")
		return
	}

	d.scheduler.Cancel(taskID)
	d.presenter.Dismiss(taskID)
	d.sink.Transient("Task completed")
	d.logger.Info("task completed from notification", "task_id", taskID)
}

func (d *Dispatcher) snoozeTask(ctx context.Context, taskID int64, snoozeFor time.Duration) {
	if snoozeFor <= 0 {
		snoozeFor = d.snooze
	}
	task, err := d.store.GetByID(ctx, taskID)
	if errors.Is(err, ErrTaskNotFound) {
		// Stale alert for a deleted task: dismiss and stop.
		d.logger.Debug("snooze for missing task, dismissing alert", "task_id", taskID)
		d.presenter.Dismiss(taskID)
		return
	}
	if err != nil {
		d.logger.Error("failed to read task for snooze", "task_id", taskID, "err", err)
		d.sink.Transient("Failed to snooze reminder")
		return
	}
	if task.IsCompleted {
		d.logger.Debug("snooze for completed task, dismissing alert", "task_id", taskID)
		d.presenter.Dismiss(taskID)
		return
	}

	newReminderAt := d.now().Add(snoozeFor)
	task.ReminderAt = &newReminderAt
	if err := d.store.Update(ctx, task); err != nil {
		d.logger.Error("failed to persist snoozed reminder", "task_id", taskID, "err", err)
		d.sink.Transient("Failed to snooze reminder")
		return
	}

	// The dispatcher registers the timer itself; the persist above is a
	// raw store write, so exactly one registration happens.
	d.scheduler.Schedule(task)
	d.presenter.Dismiss(taskID)
	d.sink.Transient(fmt.Sprintf("Reminder snoozed for %d minutes", int(snoozeFor.Minutes())))
	d.logger.Info("task snoozed from notification", "task_id", taskID, "until", newReminderAt)
}
