package rwguard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLock_WaitsForReaders(t *testing.T) {
	var d Region
	_ = d.Init(int32Bytes(1))

	var r Shared
	if err := RLock(context.Background(), &d, &r); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	var w Exclusive
	go func() {
		done <- Lock(context.Background(), &d, &w)
	}()

	select {
	case err := <-done:
		t.Fatalf("Lock returned while reader held: %v", err)
	case <-time.After(10 * time.Millisecond):
	}
	_ = r.RUnlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Lock: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Lock not acquired after RUnlock")
	}
	if !w.Held() {
		t.Fatal("Lock did not fill the handle")
	}
	_ = w.Unlock()
}

func TestRLock_ContextCanceled(t *testing.T) {
	var d Region
	_ = d.Init(int32Bytes(1))

	var w Exclusive
	_ = d.TryLock(&w)
	defer w.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	var r Shared
	if err := RLock(ctx, &d, &r); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("RLock = %v", err)
	}
	if r.Held() {
		t.Fatal("canceled RLock filled the handle")
	}

	var w2 Exclusive
	if err := Lock(ctx, &d, &w2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock = %v", err)
	}
}

func TestLock_NoRetryOnPermanentError(t *testing.T) {
	var d Region
	var r Shared
	// An uninitialized Region never becomes available by waiting.
	if err := RLock(context.Background(), &d, &r); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("RLock = %v", err)
	}
	if err := Lock(context.Background(), &d, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Lock(nil) = %v", err)
	}
}
