package model

import "sort"

type SortOption string

const (
	SortCreatedDesc SortOption = "created_desc"
	SortCreatedAsc  SortOption = "created_asc"
	SortPriority    SortOption = "priority"
	SortDueDateAsc  SortOption = "due_date_asc"
	SortDueDateDesc SortOption = "due_date_desc"
)

func (s SortOption) IsValid() bool {
	switch s {
	case SortCreatedDesc, SortCreatedAsc, SortPriority, SortDueDateAsc, SortDueDateDesc:
		return true
	default:
		return false
	}
}

func (s SortOption) DisplayName() string {
	switch s {
	case SortCreatedDesc:
		return "Newest First"
	case SortCreatedAsc:
		return "Oldest First"
	case SortPriority:
		return "Priority"
	case SortDueDateAsc:
		return "Due Date"
	case SortDueDateDesc:
		return "Due Date (Latest)"
	default:
		return string(s)
	}
}

// SortOptions lists the options in the order the UI cycles through them.
func SortOptions() []SortOption {
	return []SortOption{
		SortCreatedDesc,
		SortPriority,
		SortDueDateAsc,
		SortDueDateDesc,
		SortCreatedAsc,
	}
}

// SortTasks orders tasks in place. Priority sort breaks ties by due
// date so High-priority clusters stay readable.
func SortTasks(tasks []Task, option SortOption) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch option {
		case SortCreatedAsc:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortPriority:
			if a.Priority.Rank() != b.Priority.Rank() {
				return a.Priority.Rank() < b.Priority.Rank()
			}
			return a.DueAt.Before(b.DueAt)
		case SortDueDateAsc:
			return a.DueAt.Before(b.DueAt)
		case SortDueDateDesc:
			return a.DueAt.After(b.DueAt)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}
