// Package alarm provides the process-local analog of an OS alarm
// service: keyed one-shot wake timers with replace-on-register and
// last-write-wins semantics per key.
package alarm

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("alarm: invalid trigger time")
	ErrStopped            = errors.New("alarm: registry stopped")
)

// Payload is the denormalized task snapshot carried by a registration.
// Delivery re-reads the store for the fire/no-fire decision; the
// snapshot exists only as presentation fallback.
type Payload struct {
	TaskID      int64
	Title       string
	Description string
	Priority    string
}

// Firing is emitted when a registration comes due.
type Firing struct {
	Key     int64
	At      time.Time
	Exact   bool
	Payload Payload
}

type registration struct {
	key     int64
	at      time.Time
	fireAt  time.Time
	exact   bool
	payload Payload
}

type queueItem struct {
	reg *registration
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].reg.fireAt.Before(pq[j].reg.fireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Registry runs a single timer loop over a min-heap of registrations.
// Replaced and cancelled entries stay in the heap and are discarded
// when they surface; the active map is the source of truth per key.
type Registry struct {
	mu           sync.Mutex
	queue        priorityQueue
	active       map[int64]*registration
	out          chan Firing
	wakeup       chan struct{}
	stopCh       chan struct{}
	doneCh       chan struct{}
	started      bool
	stopped      bool
	dropped      uint64
	approxWindow time.Duration
}

// NewRegistry creates a registry. approxWindow is the coalescing
// granularity applied to approximate registrations; zero or negative
// makes approximate behave like exact.
func NewRegistry(bufferSize int, approxWindow time.Duration) *Registry {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Registry{
		queue:        make(priorityQueue, 0),
		active:       make(map[int64]*registration),
		out:          make(chan Firing, bufferSize),
		wakeup:       make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		approxWindow: approxWindow,
	}
}

func (r *Registry) C() <-chan Firing {
	return r.out
}

func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	heap.Init(&r.queue)
	go r.loop()
}

func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()
	<-r.doneCh
}

// RegisterExact registers a one-shot timer for the given instant,
// replacing any prior registration with the same key.
func (r *Registry) RegisterExact(key int64, at time.Time, payload Payload) error {
	return r.register(key, at, payload, true)
}

// RegisterApproximate is the fallback tier: delivery may be deferred to
// the end of the enclosing coalescing window.
func (r *Registry) RegisterApproximate(key int64, at time.Time, payload Payload) error {
	return r.register(key, at, payload, false)
}

func (r *Registry) register(key int64, at time.Time, payload Payload, exact bool) error {
	if at.IsZero() {
		return ErrInvalidTriggerTime
	}

	fireAt := at
	if !exact && r.approxWindow > 0 {
		fireAt = at.Truncate(r.approxWindow).Add(r.approxWindow)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrStopped
	}

	reg := &registration{key: key, at: at, fireAt: fireAt, exact: exact, payload: payload}
	r.active[key] = reg
	heap.Push(&r.queue, queueItem{reg: reg})
	r.signalWakeup()
	return nil
}

// Cancel removes the registration for key. Cancelling an unknown or
// already-fired key is a no-op.
func (r *Registry) Cancel(key int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[key]; !ok {
		return
	}
	delete(r.active, key)
	r.signalWakeup()
}

// Pending returns the live trigger instant for key, if any.
func (r *Registry) Pending(key int64) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.active[key]
	if !ok {
		return time.Time{}, false
	}
	return reg.at, true
}

// Len reports the number of live registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

func (r *Registry) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

func (r *Registry) loop() {
	defer close(r.doneCh)
	defer close(r.out)

	var timer *time.Timer
	for {
		next, hasNext := r.peek()
		if !hasNext {
			select {
			case <-r.wakeup:
				continue
			case <-r.stopCh:
				return
			}
		}

		wait := time.Until(next.fireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := r.popDue(time.Now().UTC())
			for _, firing := range due {
				select {
				case r.out <- firing:
				default:
					atomic.AddUint64(&r.dropped, 1)
				}
			}
		case <-r.wakeup:
			continue
		case <-r.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (r *Registry) signalWakeup() {
	select {
	case r.wakeup <- struct{}{}:
	default:
	}
}

// peek returns the earliest live registration, pruning stale heap
// entries on the way.
func (r *Registry) peek() (*registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.queue) > 0 {
		head := r.queue[0].reg
		if r.active[head.key] == head {
			return head, true
		}
		heap.Pop(&r.queue)
	}
	return nil, false
}

func (r *Registry) popDue(now time.Time) []Firing {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Firing, 0)
	for len(r.queue) > 0 {
		head := r.queue[0].reg
		if r.active[head.key] != head {
			heap.Pop(&r.queue)
			continue
		}
		if head.fireAt.After(now) {
			break
		}
		heap.Pop(&r.queue)
		delete(r.active, head.key)
		out = append(out, Firing{Key: head.key, At: head.at, Exact: head.exact, Payload: head.payload})
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
