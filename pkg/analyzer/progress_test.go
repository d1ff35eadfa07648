package analyzer

import (
	"context"
	"testing"
)

func TestTracker(t *testing.T) {
	var calls []int
	tr := NewTracker(func(current, total int, path string) {
		calls = append(calls, current)
	})
	tr.SetTotal(3)

	tr.Tick("a")
	tr.Tick("b")

	if tr.Current() != 2 {
		t.Errorf("Current = %d, want 2", tr.Current())
	}
	if tr.Total() != 3 {
		t.Errorf("Total = %d, want 3", tr.Total())
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("callback calls = %v", calls)
	}
}

func TestTrackerContext(t *testing.T) {
	tr := NewTracker(nil)
	ctx := WithTracker(context.Background(), tr)

	if got := TrackerFromContext(ctx); got != tr {
		t.Error("tracker not round-tripped through context")
	}
	if TrackerFromContext(context.Background()) != nil {
		t.Error("missing tracker should be nil")
	}
}
