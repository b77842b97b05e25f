package reminder

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/babatezpur/todod/internal/alarm"
)

// Loop drains timer firings and runs each delivery on its own
// goroutine inside a bounded execution window: the worker either
// finishes or is abandoned when its window context expires, and Run
// returns only after every in-flight worker has settled.
type Loop struct {
	firings  <-chan alarm.Firing
	delivery *Delivery
	window   time.Duration
	logger   *log.Logger
	wg       sync.WaitGroup
}

func NewLoop(firings <-chan alarm.Firing, delivery *Delivery, window time.Duration, logger *log.Logger) *Loop {
	if window <= 0 {
		window = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{firings: firings, delivery: delivery, window: window, logger: logger}
}

func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return
		case firing, ok := <-l.firings:
			if !ok {
				l.wg.Wait()
				return
			}
			l.wg.Add(1)
			go func(firing alarm.Firing) {
				defer l.wg.Done()
				// Deliberately not derived from the loop context:
				// shutdown must not cut a delivery short of its
				// window mid-write.
				wctx, cancel := context.WithTimeout(context.Background(), l.window)
				defer cancel()
				l.delivery.HandleFiring(wctx, firing)
			}(firing)
		}
	}
}
