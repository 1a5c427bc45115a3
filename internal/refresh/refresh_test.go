package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskRunsPeriodically(t *testing.T) {
	var n atomic.Int32
	task := Start(context.Background(), 5*time.Millisecond, func(ctx context.Context) {
		n.Add(1)
	})
	defer task.Stop()

	deadline := time.After(2 * time.Second)
	for n.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 ticks, got %d", n.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStopHaltsTicks(t *testing.T) {
	var n atomic.Int32
	task := Start(context.Background(), 2*time.Millisecond, func(ctx context.Context) {
		n.Add(1)
	})
	time.Sleep(20 * time.Millisecond)
	task.Stop()

	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() != after {
		t.Errorf("ticks continued after Stop: %d -> %d", after, n.Load())
	}

	// second Stop must not block or panic
	task.Stop()
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	task := Start(context.Background(), time.Millisecond, func(ctx context.Context) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	task.Stop()
	if !finished.Load() {
		t.Error("Stop returned before the running tick finished")
	}
}

func TestParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, time.Hour, func(ctx context.Context) {})
	cancel()

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not exit after parent cancel")
	}
}

func TestNilTaskStop(t *testing.T) {
	var task *Task
	task.Stop()
}
