package ui

import (
	"github.com/babatezpur/todod/internal/model"
	"github.com/babatezpur/todod/internal/notify"
)

// Alert mirrors a notification slot so the TUI can show active
// reminder banners alongside the desktop notification.
type Alert struct {
	TaskID   int64
	Title    string
	Priority model.Priority
	Active   bool
}

// Bridge wraps a presenter and forwards slot changes onto a channel
// the TUI waits on. Sends never block delivery; a full channel drops
// the update and the desktop notification still goes out.
type Bridge struct {
	next   notify.Presenter
	alerts chan Alert
}

func NewBridge(next notify.Presenter, buffer int) *Bridge {
	if buffer <= 0 {
		buffer = 8
	}
	return &Bridge{next: next, alerts: make(chan Alert, buffer)}
}

func (b *Bridge) Alerts() <-chan Alert { return b.alerts }

func (b *Bridge) Show(taskID int64, title, description string, priority model.Priority) error {
	b.send(Alert{TaskID: taskID, Title: title, Priority: priority, Active: true})
	return b.next.Show(taskID, title, description, priority)
}

func (b *Bridge) Dismiss(taskID int64) {
	b.send(Alert{TaskID: taskID, Active: false})
	b.next.Dismiss(taskID)
}

func (b *Bridge) send(a Alert) {
	select {
	case b.alerts <- a:
	default:
	}
}

// ToastSink buffers transient action-outcome messages for the status
// bar. Like Bridge, a full channel drops rather than blocks.
type ToastSink struct {
	toasts chan string
}

func NewToastSink(buffer int) *ToastSink {
	if buffer <= 0 {
		buffer = 8
	}
	return &ToastSink{toasts: make(chan string, buffer)}
}

func (s *ToastSink) C() <-chan string { return s.toasts }

func (s *ToastSink) Transient(msg string) {
	select {
	case s.toasts <- msg:
	default:
	}
}
