package alarm

import (
	"testing"
	"time"
)

func TestRegistryFiresInTriggerOrder(t *testing.T) {
	registry := NewRegistry(8, 0)
	registry.Start()
	defer registry.Stop()

	now := time.Now().UTC()
	if err := registry.RegisterExact(1, now.Add(80*time.Millisecond), Payload{TaskID: 1, Title: "later"}); err != nil {
		t.Fatalf("register later: %v", err)
	}
	if err := registry.RegisterExact(2, now.Add(20*time.Millisecond), Payload{TaskID: 2, Title: "sooner"}); err != nil {
		t.Fatalf("register sooner: %v", err)
	}

	first := waitFiring(t, registry.C(), time.Second)
	second := waitFiring(t, registry.C(), time.Second)
	if first.Key != 2 || second.Key != 1 {
		t.Fatalf("unexpected order: first=%d second=%d", first.Key, second.Key)
	}
	if first.Payload.Title != "sooner" {
		t.Fatalf("payload not carried through: %#v", first.Payload)
	}
}

func TestRegisterReplacesExistingKey(t *testing.T) {
	registry := NewRegistry(8, 0)
	registry.Start()
	defer registry.Stop()

	now := time.Now().UTC()
	if err := registry.RegisterExact(7, now.Add(30*time.Millisecond), Payload{Title: "first"}); err != nil {
		t.Fatalf("register first: %v", err)
	}
	replacedAt := now.Add(90 * time.Millisecond)
	if err := registry.RegisterExact(7, replacedAt, Payload{Title: "second"}); err != nil {
		t.Fatalf("register second: %v", err)
	}

	if got := registry.Len(); got != 1 {
		t.Fatalf("expected one live registration, got %d", got)
	}
	pending, ok := registry.Pending(7)
	if !ok || !pending.Equal(replacedAt) {
		t.Fatalf("unexpected pending instant: %v ok=%v", pending, ok)
	}

	firing := waitFiring(t, registry.C(), time.Second)
	if firing.Payload.Title != "second" {
		t.Fatalf("expected replacement to win, got %q", firing.Payload.Title)
	}

	select {
	case extra := <-registry.C():
		t.Fatalf("stale registration fired: %#v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	registry := NewRegistry(8, 0)
	registry.Start()
	defer registry.Stop()

	if err := registry.RegisterExact(3, time.Now().UTC().Add(50*time.Millisecond), Payload{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	registry.Cancel(3)
	registry.Cancel(3)
	registry.Cancel(99)

	if got := registry.Len(); got != 0 {
		t.Fatalf("expected empty registry, got %d", got)
	}
	select {
	case firing := <-registry.C():
		t.Fatalf("cancelled registration fired: %#v", firing)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestApproximateCoalescesToWindowBoundary(t *testing.T) {
	registry := NewRegistry(8, time.Hour)

	at := time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC)
	if err := registry.RegisterApproximate(5, at, Payload{}); err != nil {
		t.Fatalf("register approximate: %v", err)
	}

	// Pending reports the requested instant; the internal fire time is
	// deferred, which we observe through the heap head.
	pending, ok := registry.Pending(5)
	if !ok || !pending.Equal(at) {
		t.Fatalf("unexpected pending: %v ok=%v", pending, ok)
	}
	head, ok := registry.peek()
	if !ok {
		t.Fatalf("expected a queued registration")
	}
	wantFire := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	if !head.fireAt.Equal(wantFire) {
		t.Fatalf("approximate fire time = %v, want %v", head.fireAt, wantFire)
	}
}

func TestRegisterValidatesTriggerTime(t *testing.T) {
	registry := NewRegistry(1, 0)
	if err := registry.RegisterExact(1, time.Time{}, Payload{}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
}

func TestRegisterAfterStopFails(t *testing.T) {
	registry := NewRegistry(1, 0)
	registry.Start()
	registry.Stop()
	if err := registry.RegisterExact(1, time.Now().Add(time.Second), Payload{}); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	registry := NewRegistry(1, 0)
	registry.Start()
	defer registry.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := registry.RegisterExact(int64(i), now, Payload{}); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if registry.Dropped() == 0 {
		t.Fatalf("expected dropped firings > 0, got %d", registry.Dropped())
	}
}

func waitFiring(t *testing.T, ch <-chan Firing, timeout time.Duration) Firing {
	t.Helper()
	select {
	case firing := <-ch:
		return firing
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for firing")
		return Firing{}
	}
}
