package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPriority = errors.New("model: invalid task priority")

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank orders priorities for sorting, High first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

type Task struct {
	ID          int64
	Title       string
	Description string
	Priority    Priority
	DueAt       time.Time
	ReminderAt  *time.Time
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.DueAt.IsZero() {
		return errors.New("model: task due_at is required")
	}
	return nil
}

func (t Task) HasReminder() bool {
	return t.ReminderAt != nil && !t.ReminderAt.IsZero()
}

// ReminderPending reports whether the task should hold a registered
// timer: active, with a reminder strictly in the future.
func (t Task) ReminderPending(now time.Time) bool {
	return !t.IsCompleted && t.HasReminder() && t.ReminderAt.After(now)
}
