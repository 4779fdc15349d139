package session

import (
	"sync"
	"time"
)

// Resource names a quota-gated action.
type Resource string

const (
	ResourceStoryGeneration  Resource = "story_generation"
	ResourceCharacterRefresh Resource = "character_refresh"
	ResourceAnalysisSave     Resource = "analysis_save"
)

// Counter mirrors the server's per-resource quota: uses so far, the cap, and
// when the period rolls over.
type Counter struct {
	Used          int
	Max           int
	PeriodResetAt time.Time
}

// Entitlements guards quota-gated actions. The server stays the source of
// truth; this tracker mirrors the last known counters, optimistically
// increments after a confirmed success, and reconciles downward when the
// server rejects a call the client believed was allowed.
type Entitlements struct {
	mu       sync.Mutex
	counters map[Resource]Counter
	now      func() time.Time
}

// NewEntitlements builds an empty tracker; SyncFrom populates it from the
// server snapshot.
func NewEntitlements() *Entitlements {
	return &Entitlements{counters: make(map[Resource]Counter), now: time.Now}
}

// SyncFrom replaces the mirrored counters with a server snapshot.
func (e *Entitlements) SyncFrom(snapshot map[Resource]Counter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters = make(map[Resource]Counter, len(snapshot))
	for r, c := range snapshot {
		e.counters[r] = c
	}
}

// effective applies the period rollover: once the reset instant passes, the
// stored counter is zeroed in place so later consumes accumulate against the
// new period. The reset time is cleared until the next server sync supplies
// the next period boundary. Callers hold e.mu.
func (e *Entitlements) effective(r Resource) (Counter, bool) {
	c, ok := e.counters[r]
	if !ok {
		return Counter{}, false
	}
	if !c.PeriodResetAt.IsZero() && !e.now().Before(c.PeriodResetAt) {
		c.Used = 0
		c.PeriodResetAt = time.Time{}
		e.counters[r] = c
	}
	return c, true
}

// CanConsume reports whether a gated action may be attempted. Unknown
// resources are refused; the caller must sync first.
func (e *Entitlements) CanConsume(r Resource) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.effective(r)
	return ok && c.Used < c.Max
}

// Consume records one confirmed success. It refuses, rather than clamps,
// when the counter is already at its cap.
func (e *Entitlements) Consume(r Resource) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.effective(r)
	if !ok || c.Used >= c.Max {
		return &QuotaExceededError{Resource: r}
	}
	c.Used++
	e.counters[r] = c
	return nil
}

// Reconcile overwrites one counter with authoritative server values, used
// when the server rejects an optimistically-allowed call.
func (e *Entitlements) Reconcile(r Resource, used, max int, resetAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters[r] = Counter{Used: used, Max: max, PeriodResetAt: resetAt}
}

// Remaining returns how many uses are left in the current period.
func (e *Entitlements) Remaining(r Resource) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.effective(r)
	if !ok {
		return 0
	}
	left := c.Max - c.Used
	if left < 0 {
		return 0
	}
	return left
}

// Snapshot returns a copy of the mirrored counters for display.
func (e *Entitlements) Snapshot() map[Resource]Counter {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[Resource]Counter, len(e.counters))
	for r := range e.counters {
		c, _ := e.effective(r)
		out[r] = c
	}
	return out
}
