package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunIndexed_FillsAllSlots(t *testing.T) {
	n := 10
	slots := make([]int, n)

	err := RunIndexed(context.Background(), n, 3, func(ctx context.Context, i int) {
		slots[i] = i + 1
	})
	if err != nil {
		t.Fatalf("RunIndexed failed: %v", err)
	}

	for i, v := range slots {
		if v != i+1 {
			t.Errorf("slot %d not filled: got %d", i, v)
		}
	}
}

func TestRunIndexed_ZeroItems(t *testing.T) {
	called := false
	err := RunIndexed(context.Background(), 0, 4, func(ctx context.Context, i int) {
		called = true
	})
	if err != nil {
		t.Errorf("expected nil error for empty input, got %v", err)
	}
	if called {
		t.Error("fn should not be called for empty input")
	}
}

func TestRunIndexed_DefaultsWorkers(t *testing.T) {
	var executed int32
	err := RunIndexed(context.Background(), 5, 0, func(ctx context.Context, i int) {
		atomic.AddInt32(&executed, 1)
	})
	if err != nil {
		t.Fatalf("RunIndexed failed: %v", err)
	}
	if executed != 5 {
		t.Errorf("expected 5 executions with defaulted workers, got %d", executed)
	}
}

func TestRunIndexed_RespectsBound(t *testing.T) {
	var current, max int32
	var mu sync.Mutex

	err := RunIndexed(context.Background(), 20, 3, func(ctx context.Context, i int) {
		c := atomic.AddInt32(&current, 1)
		mu.Lock()
		if c > max {
			max = c
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
	})
	if err != nil {
		t.Fatalf("RunIndexed failed: %v", err)
	}

	if max > 3 {
		t.Errorf("expected at most 3 concurrent calls, observed %d", max)
	}
}

func TestRunIndexed_CancelStopsNewWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started int32
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- RunIndexed(ctx, 100, 1, func(ctx context.Context, i int) {
			atomic.AddInt32(&started, 1)
			<-release
		})
	}()

	// Let the first call start, then cancel
	for atomic.LoadInt32(&started) == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(release)

	err := <-done
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s := atomic.LoadInt32(&started); s > 2 {
		t.Errorf("expected at most 2 started calls after cancel, got %d", s)
	}
}
