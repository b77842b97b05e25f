package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/babatezpur/todod/internal/alarm"
	"github.com/babatezpur/todod/internal/model"
)

// eventLog records cross-fake call ordering.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeRegistration struct {
	at      time.Time
	exact   bool
	payload alarm.Payload
}

type fakeRegistry struct {
	mu            sync.Mutex
	registrations map[int64]fakeRegistration
	cancels       []int64
	failNext      error
	log           *eventLog
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registrations: make(map[int64]fakeRegistration)}
}

func (f *fakeRegistry) register(key int64, at time.Time, payload alarm.Payload, exact bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.registrations[key] = fakeRegistration{at: at, exact: exact, payload: payload}
	return nil
}

func (f *fakeRegistry) RegisterExact(key int64, at time.Time, payload alarm.Payload) error {
	return f.register(key, at, payload, true)
}

func (f *fakeRegistry) RegisterApproximate(key int64, at time.Time, payload alarm.Payload) error {
	return f.register(key, at, payload, false)
}

func (f *fakeRegistry) Cancel(key int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registrations, key)
	f.cancels = append(f.cancels, key)
	if f.log != nil {
		f.log.record("cancel")
	}
}

func (f *fakeRegistry) registration(key int64) (fakeRegistration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[key]
	return reg, ok
}

func (f *fakeRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registrations)
}

type fakeStore struct {
	mu          sync.Mutex
	tasks       map[int64]model.Task
	getErr      error
	listErr     error
	updateErr   error
	completeErr error
	updates     []model.Task
	log         *eventLog
}

func newFakeStore(tasks ...model.Task) *fakeStore {
	store := &fakeStore{tasks: make(map[int64]model.Task)}
	for _, task := range tasks {
		store.tasks[task.ID] = task
	}
	return store
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Task{}, f.getErr
	}
	task, ok := f.tasks[id]
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, task model.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.tasks[task.ID]; !ok {
		return ErrTaskNotFound
	}
	f.tasks[task.ID] = task
	f.updates = append(f.updates, task)
	return nil
}

func (f *fakeStore) MarkComplete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	task, ok := f.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	task.IsCompleted = true
	f.tasks[id] = task
	if f.log != nil {
		f.log.record("mark_complete")
	}
	return nil
}

func (f *fakeStore) task(id int64) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	return task, ok
}

type shownAlert struct {
	taskID      int64
	title       string
	description string
	priority    model.Priority
}

type recordingPresenter struct {
	mu        sync.Mutex
	shown     []shownAlert
	dismissed []int64
	showErr   error
	log       *eventLog
}

func (p *recordingPresenter) Show(taskID int64, title, description string, priority model.Priority) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.showErr != nil {
		return p.showErr
	}
	p.shown = append(p.shown, shownAlert{taskID: taskID, title: title, description: description, priority: priority})
	return nil
}

func (p *recordingPresenter) Dismiss(taskID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed = append(p.dismissed, taskID)
	if p.log != nil {
		p.log.record("dismiss")
	}
}

func (p *recordingPresenter) shownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

func (p *recordingPresenter) dismissals() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.dismissed...)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []string
}

func (s *recordingSink) Transient(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func timePtr(t time.Time) *time.Time { return &t }

func allowExact(v bool) GateFunc {
	return func() bool { return v }
}
