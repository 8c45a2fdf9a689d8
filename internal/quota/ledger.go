// Package quota provides consumption bookkeeping for external service
// classes.
//
// The ledger tracks usage against a configured limit per service class
// within a fixed window. All mutation goes through atomic check-and-reserve
// operations; concurrent callers can never push cumulative usage past the
// limit. The ledger performs no I/O and holds its lock only for bookkeeping.
package quota

import (
	"sync"
	"time"
)

// Limit configures the budget for one service class.
type Limit struct {
	// Limit is the maximum number of units consumable per window.
	// Zero means the class is unlimited.
	Limit int64
	// Window is the fixed accounting window. Usage resets when it elapses.
	Window time.Duration
}

// Usage is a read-only view of one service class's consumption.
type Usage struct {
	Used        int64
	Limit       int64
	Window      time.Duration
	WindowStart time.Time
}

// entry is the mutable per-class state behind the ledger lock.
type entry struct {
	used        int64
	windowStart time.Time
}

// Ledger enforces per-service-class consumption limits.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	limits  map[string]Limit
	entries map[string]*entry
	now     func() time.Time
}

// NewLedger creates a ledger with the given per-class limits. Classes absent
// from the map are unlimited.
func NewLedger(limits map[string]Limit) *Ledger {
	l := &Ledger{
		limits:  make(map[string]Limit, len(limits)),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for class, lim := range limits {
		l.limits[class] = lim
	}
	return l
}

// TryReserve atomically checks and reserves amount units for the class.
// It returns false, without reserving anything, if the reservation would
// push usage past the configured limit. Reservation must happen before any
// network effect; callers release on failure via Release.
func (l *Ledger) TryReserve(class string, amount int64) bool {
	if amount <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, limited := l.limits[class]
	if !limited || lim.Limit <= 0 {
		l.entryLocked(class, lim).used += amount
		return true
	}

	e := l.entryLocked(class, lim)
	if e.used+amount > lim.Limit {
		return false
	}
	e.used += amount
	return true
}

// Release returns previously reserved units, correcting over-reservation
// after a failed call. Usage never goes below zero.
func (l *Ledger) Release(class string, amount int64) {
	if amount <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[class]
	if !ok {
		return
	}
	e.used -= amount
	if e.used < 0 {
		e.used = 0
	}
}

// Usage returns the current consumption view for a class.
func (l *Ledger) Usage(class string) Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim := l.limits[class]
	e := l.entryLocked(class, lim)
	return Usage{
		Used:        e.used,
		Limit:       lim.Limit,
		Window:      lim.Window,
		WindowStart: e.windowStart,
	}
}

// Snapshot returns the consumption view for every configured class.
func (l *Ledger) Snapshot() map[string]Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Usage, len(l.limits))
	for class, lim := range l.limits {
		e := l.entryLocked(class, lim)
		out[class] = Usage{
			Used:        e.used,
			Limit:       lim.Limit,
			Window:      lim.Window,
			WindowStart: e.windowStart,
		}
	}
	return out
}

// entryLocked returns the per-class entry, creating it or rolling its window
// forward as needed. Callers must hold l.mu.
func (l *Ledger) entryLocked(class string, lim Limit) *entry {
	e, ok := l.entries[class]
	if !ok {
		e = &entry{windowStart: l.now()}
		l.entries[class] = e
		return e
	}
	if lim.Window > 0 && l.now().Sub(e.windowStart) >= lim.Window {
		e.used = 0
		e.windowStart = l.now()
	}
	return e
}
