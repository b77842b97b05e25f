// Package commands parses the palette input line into structured
// commands the UI can execute against the task manager.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/babatezpur/todod/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeSnooze Type = "snooze"
	TypeSort   Type = "sort"
	TypeSearch Type = "search"
	TypeFilter Type = "filter"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

type AddArgs struct {
	Title      string
	Priority   model.Priority
	DueAt      time.Time
	ReminderAt *time.Time
}

type DoneArgs struct {
	TaskID int64
}

type SnoozeArgs struct {
	TaskID  int64
	Minutes int
}

type SortArgs struct {
	Option model.SortOption
}

type SearchArgs struct {
	Query string
}

type FilterArgs struct {
	Completed *bool
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *DoneArgs
	Snooze *SnoozeArgs
	Sort   *SortArgs
	Search *SearchArgs
	Filter *FilterArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseDone(input, args)
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypeSort:
		return parseSort(input, args)
	case TypeSearch:
		return parseSearch(input, args)
	case TypeFilter:
		return parseFilter(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd accepts a free-form title mixed with key:value tokens:
//
//	add Pay rent due:2026-09-01 remind:2026-08-31T18:00 prio:high
//
// Tokens may appear anywhere; everything else joins into the title.
func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}

	out := AddArgs{Priority: model.PriorityMedium}
	var titleParts []string
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case strings.HasPrefix(lower, "due:"):
			at, err := parseWhen(arg[len("due:"):])
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid due date: %s", arg)}
			}
			out.DueAt = at
		case strings.HasPrefix(lower, "remind:"):
			at, err := parseWhen(arg[len("remind:"):])
			if err != nil {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid reminder time: %s", arg)}
			}
			out.ReminderAt = &at
		case strings.HasPrefix(lower, "prio:"):
			prio := model.Priority(capitalize(lower[len("prio:"):]))
			if !prio.IsValid() {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid priority: %s", arg)}
			}
			out.Priority = prio
		default:
			titleParts = append(titleParts, arg)
		}
	}

	out.Title = strings.TrimSpace(strings.Join(titleParts, " "))
	if out.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseDone(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "done requires a task id"}
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDone, Raw: raw, Done: &DoneArgs{TaskID: id}}, nil
}

func parseSnooze(raw string, args []string) (Command, error) {
	if len(args) < 1 || len(args) > 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "snooze requires a task id and optional minutes"}
	}
	id, err := parseTaskID(args[0])
	if err != nil {
		return Command{}, err
	}
	minutes := 0
	if len(args) == 2 {
		minutes, err = strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid snooze minutes: %s", args[1])}
		}
	}
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{TaskID: id, Minutes: minutes}}, nil
}

func parseSort(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "sort requires an option"}
	}
	opt := model.SortOption(strings.ToLower(args[0]))
	if !opt.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid sort option: %s", args[0])}
	}
	return Command{Type: TypeSort, Raw: raw, Sort: &SortArgs{Option: opt}}, nil
}

func parseSearch(raw string, args []string) (Command, error) {
	// An empty query clears the active search.
	return Command{Type: TypeSearch, Raw: raw, Search: &SearchArgs{Query: strings.Join(args, " ")}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires one of: all, active, completed"}
	}
	out := FilterArgs{}
	switch strings.ToLower(args[0]) {
	case "all":
	case "active":
		v := false
		out.Completed = &v
	case "completed":
		v := true
		out.Completed = &v
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid filter: %s", args[0])}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &out}, nil
}

func parseTaskID(arg string) (int64, error) {
	arg = strings.TrimPrefix(arg, "#")
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid task id: %s", arg)}
	}
	return id, nil
}

func parseWhen(value string) (time.Time, error) {
	if at, err := time.ParseInLocation(dateTimeLayout, value, time.Local); err == nil {
		return at.UTC(), nil
	}
	at, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	// Bare dates land at end of day so they stay schedulable all day.
	return at.Add(23*time.Hour + 59*time.Minute).UTC(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
