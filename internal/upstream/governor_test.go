package upstream

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGovernor_SpacesAdmissions(t *testing.T) {
	const interval = 20 * time.Millisecond
	g := NewGovernor(interval)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Throttle(ctx); err != nil {
			t.Fatalf("Throttle: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First admission is immediate; the next two wait one interval each.
	if elapsed < 2*interval {
		t.Errorf("3 admissions took %v, want >= %v", elapsed, 2*interval)
	}
}

func TestGovernor_ConcurrentCallersGetDistinctSlots(t *testing.T) {
	const interval = 15 * time.Millisecond
	g := NewGovernor(interval)
	ctx := context.Background()

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Throttle(ctx); err != nil {
				t.Errorf("Throttle: %v", err)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if elapsed < 3*interval {
		t.Errorf("4 concurrent admissions took %v, want >= %v", elapsed, 3*interval)
	}
}

func TestGovernor_ZeroIntervalNeverBlocks(t *testing.T) {
	g := NewGovernor(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := g.Throttle(ctx); err != nil {
			t.Fatalf("Throttle: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("100 admissions took %v with zero interval", elapsed)
	}
}

func TestGovernor_CancelledContext(t *testing.T) {
	g := NewGovernor(time.Minute)
	ctx := context.Background()

	// Burn the immediate slot so the next caller has to wait.
	if err := g.Throttle(ctx); err != nil {
		t.Fatalf("Throttle: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- g.Throttle(cancelCtx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Throttle error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Throttle did not return after cancellation")
	}
}
