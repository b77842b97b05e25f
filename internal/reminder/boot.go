package reminder

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// SweepResult summarizes one recovery pass.
type SweepResult struct {
	Eligible  int
	Scheduled int
}

// Sweep restores the invariant "every active task with a future
// reminder holds exactly one registered timer" after a restart, when
// the in-process timer registry starts empty. Running it more than
// once is safe: registration replaces by key.
type Sweep struct {
	store     TaskStore
	scheduler *Scheduler
	logger    *log.Logger
	now       func() time.Time
}

func NewSweep(store TaskStore, scheduler *Scheduler, logger *log.Logger) *Sweep {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Sweep{
		store:     store,
		scheduler: scheduler,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run performs the one-time bulk read and re-registers every surviving
// reminder. Nothing awaits its result; failures degrade to logging.
func (s *Sweep) Run(ctx context.Context) SweepResult {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error("boot sweep failed to list tasks", "err", err)
		return SweepResult{}
	}

	now := s.now()
	result := SweepResult{}
	for _, task := range tasks {
		if !task.ReminderPending(now) {
			continue
		}
		result.Eligible++
		if s.scheduler.Schedule(task) {
			result.Scheduled++
		}
	}

	s.logger.Info("boot sweep rescheduled reminders",
		"eligible", result.Eligible, "scheduled", result.Scheduled, "total", len(tasks))
	return result
}
