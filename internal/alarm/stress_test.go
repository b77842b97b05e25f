package alarm

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistryStressConcurrentRegister(t *testing.T) {
	registry := NewRegistry(4096, 0)
	registry.Start()
	defer registry.Stop()

	const workers = 8
	const perWorker = 200
	total := workers * perWorker

	now := time.Now().UTC()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				delay := time.Duration((w+i)%50+10) * time.Millisecond
				key := int64(w*perWorker + i)
				if err := registry.RegisterExact(key, now.Add(delay), Payload{TaskID: key}); err != nil {
					t.Errorf("register failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.After(5 * time.Second)
	var received int64
	for atomic.LoadInt64(&received) < int64(total) {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting firings: received=%d total=%d dropped=%d", received, total, registry.Dropped())
		case <-registry.C():
			atomic.AddInt64(&received, 1)
		}
	}

	if got := int(received); got != total {
		t.Fatalf("unexpected received count: got=%d want=%d", got, total)
	}
	if registry.Dropped() != 0 {
		t.Fatalf("expected zero drops with active consumer, got=%d", registry.Dropped())
	}
	if registry.Len() != 0 {
		t.Fatalf("expected drained registry, got %d live", registry.Len())
	}
}

func TestRegistryStressReplaceSameKey(t *testing.T) {
	registry := NewRegistry(64, 0)
	registry.Start()
	defer registry.Stop()

	now := time.Now().UTC()
	for i := 0; i < 500; i++ {
		at := now.Add(time.Duration(30+i%20) * time.Millisecond)
		if err := registry.RegisterExact(42, at, Payload{TaskID: 42}); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}

	first := waitFiring(t, registry.C(), 2*time.Second)
	if first.Key != 42 {
		t.Fatalf("unexpected key: %d", first.Key)
	}
	select {
	case extra := <-registry.C():
		t.Fatalf("replaced registration fired twice: %#v", extra)
	case <-time.After(200 * time.Millisecond):
	}
	if registry.Len() != 0 {
		t.Fatalf("expected no live registrations, got %d", registry.Len())
	}
}
