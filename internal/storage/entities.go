package storage

import "time"

type Task struct {
	ID          int64
	Title       string
	Description string
	Priority    string
	DueAt       time.Time
	ReminderAt  *time.Time
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskListFilter struct {
	Completed *bool
	Search    string
	Sort      string
	Limit     int
	Offset    int
}

type Statistics struct {
	Total        int
	Completed    int
	Active       int
	Overdue      int
	WithReminder int
}
