package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestExecuteRunsProcessorExactlyOnce(t *testing.T) {
	// S5 — a second request with the same key, any body, returns the
	// identical response and the processor is not invoked again.
	c := NewCache()
	var calls int32

	proc := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"imported":1}`), nil
	}

	first, err := c.Execute(context.Background(), "abc123", proc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := c.Execute(context.Background(), "abc123", proc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("expected byte-for-byte equal replay bodies")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected processor invoked exactly once, got %d", calls)
	}
}

func TestExecuteSerializesConcurrentCallsForSameKey(t *testing.T) {
	c := NewCache()
	var calls int32
	var wg sync.WaitGroup

	proc := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"imported":1}`), nil
	}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Execute(context.Background(), "same-key", proc)
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected processor invoked exactly once across concurrent callers, got %d", calls)
	}
}

func TestExecuteDistinctKeysRunIndependently(t *testing.T) {
	c := NewCache()
	var calls int32
	proc := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{}`), nil
	}

	_, _ = c.Execute(context.Background(), "key-a", proc)
	_, _ = c.Execute(context.Background(), "key-b", proc)

	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected distinct keys to each invoke the processor once, got %d", calls)
	}
}

func TestKeyPatternValidation(t *testing.T) {
	valid := []string{"abc123", "a", "A-B_c9", "x123456789012345678901234567890"}
	for _, v := range valid {
		if !KeyPattern.MatchString(v) {
			t.Errorf("expected %q to be a valid idempotency key", v)
		}
	}

	invalid := []string{"", "has space", "has/slash", "has.dot"}
	for _, v := range invalid {
		if KeyPattern.MatchString(v) {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}
