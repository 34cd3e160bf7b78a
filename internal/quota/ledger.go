// Package quota tracks the YouTube Data API unit budget for the current
// accounting window and gates every outbound platform call.
package quota

import (
	"sync"
	"time"
)

// Platform-defined unit costs per API method.
const (
	CostSearch       = 100
	CostChannelsList = 1
	CostVideosList   = 1
)

// Window is a read-only snapshot of the active accounting window.
type Window struct {
	Start     time.Time `json:"windowStart"`
	Consumed  int       `json:"unitsConsumed"`
	Budget    int       `json:"unitsBudget"`
	Remaining int       `json:"unitsRemaining"`
}

// Ledger is a mutex-guarded windowed unit counter. Rollover is lazy: it is
// evaluated on every TryReserve/CurrentWindow call against the injected
// clock, so no background timer is needed and tests can drive time directly.
type Ledger struct {
	mu          sync.Mutex
	budget      int
	windowLen   time.Duration
	consumed    int
	windowStart time.Time
	now         func() time.Time
}

// NewLedger creates a ledger with the given unit budget and window length
// using the wall clock.
func NewLedger(budget int, windowLen time.Duration) *Ledger {
	return NewLedgerWithClock(budget, windowLen, time.Now)
}

// NewLedgerWithClock creates a ledger with an injected clock.
func NewLedgerWithClock(budget int, windowLen time.Duration, now func() time.Time) *Ledger {
	return &Ledger{
		budget:      budget,
		windowLen:   windowLen,
		windowStart: now(),
		now:         now,
	}
}

// TryReserve atomically reserves cost units against the current window.
// It returns false without mutating state when the reservation would exceed
// the budget. Exhaustion is a normal refuse outcome, not an error; callers
// fall back to cache-only behavior.
func (l *Ledger) TryReserve(cost int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()

	if l.consumed+cost > l.budget {
		return false
	}
	l.consumed += cost
	return true
}

// CurrentWindow returns a snapshot of the active window for observability.
func (l *Ledger) CurrentWindow() Window {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rolloverLocked()

	return Window{
		Start:     l.windowStart,
		Consumed:  l.consumed,
		Budget:    l.budget,
		Remaining: l.budget - l.consumed,
	}
}

// rolloverLocked advances the window when it has elapsed. Must be called
// with the mutex held.
func (l *Ledger) rolloverLocked() {
	now := l.now()
	if now.Sub(l.windowStart) > l.windowLen {
		l.windowStart = now
		l.consumed = 0
	}
}
