package scorecache

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestInflightGuardSerializesSameFingerprint(t *testing.T) {
	guard, err := NewInflightGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewInflightGuard: %v", err)
	}
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "fp-1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	var mu sync.Mutex
	var order []string

	done := make(chan struct{})
	go func() {
		defer close(done)
		second, err := guard.Acquire(ctx, "fp-1")
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			return
		}
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		second()
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	order = append(order, "first")
	mu.Unlock()
	release()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second acquire never completed")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" {
		t.Fatalf("order = %v, second run must wait for the first", order)
	}
}

func TestInflightGuardDifferentFingerprintsDoNotBlock(t *testing.T) {
	guard, err := NewInflightGuard(t.TempDir())
	if err != nil {
		t.Fatalf("NewInflightGuard: %v", err)
	}
	ctx := context.Background()

	releaseA, err := guard.Acquire(ctx, "fp-a")
	if err != nil {
		t.Fatalf("Acquire fp-a: %v", err)
	}
	defer releaseA()

	ctxB, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	releaseB, err := guard.Acquire(ctxB, "fp-b")
	if err != nil {
		t.Fatalf("Acquire fp-b blocked: %v", err)
	}
	releaseB()
}

func TestInflightGuardNilIsNoop(t *testing.T) {
	var guard *InflightGuard
	release, err := guard.Acquire(context.Background(), "fp")
	if err != nil {
		t.Fatalf("nil guard Acquire: %v", err)
	}
	release()
}
