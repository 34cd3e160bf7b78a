package quota

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a mutable clock for driving window rollover in tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLedger(budget int, window time.Duration) (*Ledger, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	return NewLedgerWithClock(budget, window, clock.Now), clock
}

func TestTryReserve_WithinBudget(t *testing.T) {
	l, _ := newTestLedger(100, 24*time.Hour)

	if !l.TryReserve(50) {
		t.Fatal("first reservation of 50/100 should succeed")
	}
	if !l.TryReserve(50) {
		t.Fatal("second reservation filling the budget exactly should succeed")
	}
	if w := l.CurrentWindow(); w.Consumed != 100 || w.Remaining != 0 {
		t.Errorf("window = %+v, want consumed=100 remaining=0", w)
	}
}

func TestTryReserve_RefusesWithoutMutating(t *testing.T) {
	l, _ := newTestLedger(100, 24*time.Hour)

	if !l.TryReserve(80) {
		t.Fatal("reservation of 80/100 should succeed")
	}
	if l.TryReserve(30) {
		t.Fatal("reservation exceeding the budget should be refused")
	}
	if w := l.CurrentWindow(); w.Consumed != 80 {
		t.Errorf("refused reservation mutated state: consumed = %d, want 80", w.Consumed)
	}
	// A smaller reservation that still fits must succeed after a refusal.
	if !l.TryReserve(20) {
		t.Fatal("reservation of remaining 20 units should succeed")
	}
}

func TestTryReserve_LazyWindowRollover(t *testing.T) {
	l, clock := newTestLedger(100, 24*time.Hour)

	if !l.TryReserve(100) {
		t.Fatal("initial reservation should succeed")
	}
	if l.TryReserve(1) {
		t.Fatal("budget is exhausted")
	}

	clock.Advance(24*time.Hour + time.Minute)

	if !l.TryReserve(100) {
		t.Fatal("reservation after rollover should succeed against a fresh window")
	}
	w := l.CurrentWindow()
	if w.Consumed != 100 {
		t.Errorf("consumed = %d, want 100 in the new window", w.Consumed)
	}
	if !w.Start.Equal(clock.Now()) {
		t.Errorf("windowStart = %v, want %v (advanced to now on rollover)", w.Start, clock.Now())
	}
}

func TestTryReserve_NoRolloverWithinWindow(t *testing.T) {
	l, clock := newTestLedger(100, 24*time.Hour)
	start := l.CurrentWindow().Start

	l.TryReserve(60)
	clock.Advance(23 * time.Hour)

	w := l.CurrentWindow()
	if !w.Start.Equal(start) {
		t.Errorf("windowStart moved within the window: %v, want %v", w.Start, start)
	}
	if w.Consumed != 60 {
		t.Errorf("consumed = %d, want 60", w.Consumed)
	}
}

func TestTryReserve_ConcurrentNeverOverspends(t *testing.T) {
	l, _ := newTestLedger(1000, 24*time.Hour)

	var wg sync.WaitGroup
	var granted sync.Map
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if l.TryReserve(25) {
				granted.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	granted.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 40 {
		t.Errorf("granted %d reservations of 25/1000, want exactly 40", count)
	}
	if w := l.CurrentWindow(); w.Consumed != 1000 {
		t.Errorf("consumed = %d, want 1000", w.Consumed)
	}
}
