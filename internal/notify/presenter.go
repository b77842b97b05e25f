// Package notify renders reminder alerts. Each task id owns at most
// one visible alert; showing again replaces it, dismissing is
// idempotent.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/babatezpur/todod/internal/model"
)

type Presenter interface {
	Show(taskID int64, title, description string, priority model.Priority) error
	Dismiss(taskID int64)
}

type Noop struct{}

func (Noop) Show(int64, string, string, model.Priority) error { return nil }
func (Noop) Dismiss(int64)                                    {}

// Desktop shells out to the platform notifier. The OS keys alerts by
// the title we pass, so re-showing the same task replaces the prior
// alert; we track live ids to honor the one-slot invariant locally.
type Desktop struct {
	mu   sync.Mutex
	live map[int64]bool
}

func NewDesktop() *Desktop {
	return &Desktop{live: make(map[int64]bool)}
}

func (d *Desktop) Show(taskID int64, title, description string, priority model.Priority) error {
	d.mu.Lock()
	d.live[taskID] = true
	d.mu.Unlock()

	header := fmt.Sprintf("Reminder: %s", title)
	body := description
	if priority == model.PriorityHigh {
		header = fmt.Sprintf("Reminder (high priority): %s", title)
	}

	switch runtime.GOOS {
	case "linux":
		urgency := "normal"
		if priority == model.PriorityHigh {
			urgency = "critical"
		}
		return exec.Command("notify-send", "--urgency", urgency, header, body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(header))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func (d *Desktop) Dismiss(taskID int64) {
	d.mu.Lock()
	delete(d.live, taskID)
	d.mu.Unlock()
	// Shell notifiers offer no handle to retract a posted alert;
	// dropping the slot is all we can do here.
}

// Live reports whether an alert slot is held for the task.
func (d *Desktop) Live(taskID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[taskID]
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
