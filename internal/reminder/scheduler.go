// Package reminder owns the scheduling and delivery of task
// reminders: mapping reminder instants onto keyed one-shot timers,
// re-validating task state when a timer fires, handling the
// complete/snooze notification actions, and re-registering everything
// after a restart.
package reminder

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/alarm"
	"github.com/babatezpur/todod/internal/model"
)

// TimerRegistry is the platform timer primitive: one-shot, keyed,
// replace-on-register, wake-capable.
type TimerRegistry interface {
	RegisterExact(key int64, at time.Time, payload alarm.Payload) error
	RegisterApproximate(key int64, at time.Time, payload alarm.Payload) error
	Cancel(key int64)
}

// PermissionGate reports whether exact-timing registrations are
// currently permitted. The capability can be revoked at runtime.
type PermissionGate interface {
	CanScheduleExact() bool
}

type GateFunc func() bool

func (f GateFunc) CanScheduleExact() bool { return f() }

// Scheduler translates a task's reminder instant into exactly one
// registered timer, or ensures none exists. The timer key is the task
// id, so re-registration replaces any prior registration for the task.
type Scheduler struct {
	registry TimerRegistry
	gate     PermissionGate
	logger   *log.Logger
	now      func() time.Time
}

func NewScheduler(registry TimerRegistry, gate PermissionGate, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{
		registry: registry,
		gate:     gate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CanScheduleExact exposes the capability query for call sites that
// want to surface a one-time advisory about approximate timing.
func (s *Scheduler) CanScheduleExact() bool {
	return s.gate.CanScheduleExact()
}

// Schedule registers a timer for the task's reminder and reports
// whether a registration was made. A nil or non-future reminder is a
// logged no-op, not an error: the absence of a valid reminder is
// routine.
func (s *Scheduler) Schedule(task model.Task) bool {
	if !task.HasReminder() || !task.ReminderAt.After(s.now()) {
		s.logger.Debug("skipping reminder without future trigger", "task_id", task.ID)
		return false
	}

	at := task.ReminderAt.UTC()
	payload := alarm.Payload{
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
	}

	var err error
	if s.gate.CanScheduleExact() {
		err = s.registry.RegisterExact(task.ID, at, payload)
	} else {
		// Capability revoked: degrade to approximate timing rather
		// than failing the schedule attempt.
		err = s.registry.RegisterApproximate(task.ID, at, payload)
		s.logger.Warn("exact timers unavailable, scheduled approximate", "task_id", task.ID, "at", at)
	}
	if err != nil {
		s.logger.Error("failed to register reminder", "task_id", task.ID, "err", err)
		return false
	}
	s.logger.Debug("reminder registered", "task_id", task.ID, "at", at)
	return true
}

// Cancel removes the timer for a task id. Cancelling a missing timer
// is a no-op.
func (s *Scheduler) Cancel(taskID int64) {
	s.registry.Cancel(taskID)
	s.logger.Debug("reminder cancelled", "task_id", taskID)
}

// Update is the cancel-then-maybe-schedule composition. It must be
// used whenever a task's reminder might have been cleared, so that
// "no reminder" always means "no timer".
func (s *Scheduler) Update(task model.Task) bool {
	s.Cancel(task.ID)
	if !task.HasReminder() {
		return false
	}
	return s.Schedule(task)
}

// ScheduleAll attempts each task independently and returns the number
// of registrations made. One failure never aborts the rest.
func (s *Scheduler) ScheduleAll(tasks []model.Task) int {
	scheduled := 0
	for _, task := range tasks {
		if s.Schedule(task) {
			scheduled++
		}
	}
	s.logger.Info("bulk reminder schedule", "scheduled", scheduled, "total", len(tasks))
	return scheduled
}

// CancelAll cancels each id independently and returns the count
// processed.
func (s *Scheduler) CancelAll(taskIDs []int64) int {
	for _, id := range taskIDs {
		s.Cancel(id)
	}
	s.logger.Info("bulk reminder cancel", "count", len(taskIDs))
	return len(taskIDs)
}
