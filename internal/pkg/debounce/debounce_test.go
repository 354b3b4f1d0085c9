package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleOnlyLastRuns(t *testing.T) {
	d := New(30 * time.Millisecond)

	var first, second atomic.Int32
	d.Schedule(func() { first.Add(1) })
	d.Schedule(func() { second.Add(1) })

	time.Sleep(100 * time.Millisecond)

	if got := first.Load(); got != 0 {
		t.Errorf("superseded function ran %d times, want 0", got)
	}
	if got := second.Load(); got != 1 {
		t.Errorf("latest function ran %d times, want 1", got)
	}
}

func TestScheduleResetsWindow(t *testing.T) {
	d := New(50 * time.Millisecond)

	var ran atomic.Int32
	d.Schedule(func() { ran.Add(1) })
	time.Sleep(30 * time.Millisecond)
	d.Schedule(func() { ran.Add(1) })
	time.Sleep(30 * time.Millisecond)

	// 60ms elapsed, but the second schedule reset the window 30ms ago.
	if got := ran.Load(); got != 0 {
		t.Fatalf("function ran %d times before the window elapsed", got)
	}

	time.Sleep(50 * time.Millisecond)
	if got := ran.Load(); got != 1 {
		t.Errorf("function ran %d times, want 1", got)
	}
}

func TestCancel(t *testing.T) {
	d := New(20 * time.Millisecond)

	var ran atomic.Int32
	d.Schedule(func() { ran.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	if got := ran.Load(); got != 0 {
		t.Errorf("cancelled function ran %d times", got)
	}
}
