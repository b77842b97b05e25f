package reminder

import (
	"errors"
	"testing"
	"time"

	"github.com/babatezpur/todod/internal/model"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(registry *fakeRegistry, gate PermissionGate) *Scheduler {
	s := NewScheduler(registry, gate, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func TestScheduleRegistersExactTimer(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	at := testNow.Add(time.Hour)
	task := model.Task{ID: 7, Title: "Dentist", Description: "Bring insurance card", Priority: model.PriorityHigh, ReminderAt: &at}
	if !s.Schedule(task) {
		t.Fatalf("expected schedule to register")
	}

	reg, ok := registry.registration(7)
	if !ok {
		t.Fatalf("no registration for task 7")
	}
	if !reg.exact {
		t.Fatalf("expected exact registration")
	}
	if !reg.at.Equal(at) {
		t.Fatalf("registered at %v, want %v", reg.at, at)
	}
	if reg.payload.TaskID != 7 || reg.payload.Title != "Dentist" || reg.payload.Priority != "High" {
		t.Fatalf("unexpected payload snapshot: %#v", reg.payload)
	}
}

func TestScheduleFallsBackToApproximateWithoutCapability(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(false))

	at := testNow.Add(time.Hour)
	if !s.Schedule(model.Task{ID: 1, Title: "t", ReminderAt: &at}) {
		t.Fatalf("expected fallback registration to succeed")
	}
	reg, ok := registry.registration(1)
	if !ok || reg.exact {
		t.Fatalf("expected approximate registration, got %#v ok=%v", reg, ok)
	}
	if s.CanScheduleExact() {
		t.Fatalf("gate should report exact unavailable")
	}
}

func TestScheduleSkipsPastAndMissingReminders(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	past := testNow.Add(-time.Minute)
	cases := []model.Task{
		{ID: 1, Title: "no reminder"},
		{ID: 2, Title: "past", ReminderAt: &past},
		{ID: 3, Title: "exactly now", ReminderAt: &testNow},
	}
	for _, task := range cases {
		if s.Schedule(task) {
			t.Fatalf("task %d should not register", task.ID)
		}
	}
	if registry.count() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.count())
	}
}

func TestScheduleReportsRegistryFailure(t *testing.T) {
	registry := newFakeRegistry()
	registry.failNext = errors.New("registry full")
	s := newTestScheduler(registry, allowExact(true))

	at := testNow.Add(time.Hour)
	if s.Schedule(model.Task{ID: 9, Title: "t", ReminderAt: &at}) {
		t.Fatalf("expected schedule to report failure")
	}
}

func TestUpdateClearsTimerWhenReminderRemoved(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	at := testNow.Add(time.Hour)
	task := model.Task{ID: 4, Title: "t", ReminderAt: &at}
	if !s.Schedule(task) {
		t.Fatalf("initial schedule failed")
	}

	task.ReminderAt = nil
	if s.Update(task) {
		t.Fatalf("update without reminder must not register")
	}
	if registry.count() != 0 {
		t.Fatalf("expected no timers after cleared reminder, got %d", registry.count())
	}
}

func TestUpdateReplacesExistingRegistration(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	first := testNow.Add(time.Hour)
	second := testNow.Add(2 * time.Hour)
	task := model.Task{ID: 4, Title: "t", ReminderAt: &first}
	s.Schedule(task)
	task.ReminderAt = &second
	if !s.Update(task) {
		t.Fatalf("update failed")
	}

	if registry.count() != 1 {
		t.Fatalf("expected exactly one timer, got %d", registry.count())
	}
	reg, _ := registry.registration(4)
	if !reg.at.Equal(second) {
		t.Fatalf("latest intent did not win: %v", reg.at)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	s.Cancel(11)
	s.Cancel(11)
	if registry.count() != 0 {
		t.Fatalf("cancel must not create registrations")
	}
}

func TestScheduleAllContinuesPastFailures(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	future := testNow.Add(time.Hour)
	past := testNow.Add(-time.Hour)
	tasks := []model.Task{
		{ID: 1, Title: "valid", ReminderAt: &future},
		{ID: 2, Title: "past", ReminderAt: &past},
		{ID: 3, Title: "no reminder"},
		{ID: 4, Title: "also valid", ReminderAt: &future},
	}

	if got := s.ScheduleAll(tasks); got != 2 {
		t.Fatalf("ScheduleAll = %d, want 2", got)
	}
	if registry.count() != 2 {
		t.Fatalf("expected 2 registrations, got %d", registry.count())
	}
}

func TestCancelAllCancelsEveryKey(t *testing.T) {
	registry := newFakeRegistry()
	s := newTestScheduler(registry, allowExact(true))

	future := testNow.Add(time.Hour)
	for id := int64(1); id <= 3; id++ {
		s.Schedule(model.Task{ID: id, Title: "t", ReminderAt: &future})
	}
	if got := s.CancelAll([]int64{1, 2, 3, 99}); got != 4 {
		t.Fatalf("CancelAll = %d, want 4", got)
	}
	if registry.count() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.count())
	}
}
