package rtmp

import "testing"

func TestVideoPendingCounters_IncrementDecrement(t *testing.T) {
	v := newVideoPendingCounters()

	v.increment(1)
	v.increment(1)
	v.increment(2)

	if got := v.PendingVideoMessages(1); got != 2 {
		t.Fatalf("expected 2 pending for stream 1, got %d", got)
	}
	if got := v.PendingVideoMessages(2); got != 1 {
		t.Fatalf("expected 1 pending for stream 2, got %d", got)
	}

	v.decrement(1)
	if got := v.PendingVideoMessages(1); got != 1 {
		t.Fatalf("expected 1 pending for stream 1 after decrement, got %d", got)
	}

	v.decrement(1)
	if got := v.PendingVideoMessages(1); got != 0 {
		t.Fatalf("expected 0 pending for stream 1 once drained, got %d", got)
	}
}

func TestVideoPendingCounters_DecrementBelowZeroStaysAtZero(t *testing.T) {
	v := newVideoPendingCounters()
	v.decrement(5) // never incremented
	if got := v.PendingVideoMessages(5); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestVideoPendingCounters_DoesNotSubtractUsedStreamCount(t *testing.T) {
	// Regression test: PendingVideoMessages must report the raw pending
	// count, not adjusted by however many streams the connection has used.
	v := newVideoPendingCounters()
	for i := 0; i < 3; i++ {
		v.increment(1)
	}
	if got := v.PendingVideoMessages(1); got != 3 {
		t.Fatalf("expected raw count of 3, got %d", got)
	}
}

func TestVideoPendingCounters_ClearAndRemove(t *testing.T) {
	v := newVideoPendingCounters()
	v.increment(1)
	v.increment(2)

	v.remove(1)
	if got := v.PendingVideoMessages(1); got != 0 {
		t.Fatalf("expected stream 1 removed, got %d", got)
	}
	if got := v.PendingVideoMessages(2); got != 1 {
		t.Fatalf("expected stream 2 untouched, got %d", got)
	}

	v.clear()
	if got := v.PendingVideoMessages(2); got != 0 {
		t.Fatalf("expected clear to drop every counter, got %d", got)
	}
}
