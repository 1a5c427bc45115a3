// Package refresh runs a periodic background job with an explicit lifetime.
package refresh

import (
	"context"
	"time"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/logger"
)

// Task is a running periodic job. Ticks run serially on one goroutine.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs fn every interval until ctx is cancelled or Stop is called.
// The first run happens one interval after Start. A non-positive interval
// falls back to the default refresh period.
func Start(ctx context.Context, interval time.Duration, fn func(context.Context)) *Task {
	if interval <= 0 {
		interval = constants.DefaultRefreshInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go t.run(ctx, interval, fn)
	return t
}

func (t *Task) run(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Debug("refresh task started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("refresh task stopped")
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// Stop cancels the task and waits for an in-flight tick to return.
// It is safe to call more than once and on a nil Task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

// Done is closed once the task has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
