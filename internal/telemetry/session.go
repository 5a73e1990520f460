package telemetry

import (
	"sync"
	"time"
)

// Session registry bounds. When the registry grows past maxTrackedSessions
// it is compacted down to compactedSessions by evicting the oldest entries
// in insertion order.
const (
	maxTrackedSessions = 10000
	compactedSessions  = 5000
)

// SessionEvent classifies an observed session identifier.
type SessionEvent int

const (
	// SessionNone means no session identifier was present.
	SessionNone SessionEvent = iota

	// SessionNew means the identifier has not been seen before
	// (or was evicted and is being re-learned).
	SessionNew

	// SessionContinuing means the identifier is already tracked.
	SessionContinuing
)

// String returns the event name for logging and span attributes.
func (e SessionEvent) String() string {
	switch e {
	case SessionNew:
		return "new"
	case SessionContinuing:
		return "continuing"
	default:
		return "none"
	}
}

// SessionTracker is a bounded registry of session identifiers and their
// first-seen times, used to distinguish new sessions from continuing ones
// and to measure session age.
//
// Eviction is FIFO by first insertion, not by recency of use: a long-lived
// session can be evicted while active and will then be reported as new on
// its next request. That misclassification only skews the session-start
// counter slightly; recency tracking is not worth the extra bookkeeping
// per request.
type SessionTracker struct {
	mu        sync.Mutex
	firstSeen map[string]time.Time
	order     []string
	now       func() time.Time
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		firstSeen: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Observe records a session identifier. For a previously seen identifier
// it returns SessionContinuing and the elapsed time since the session was
// first observed. An empty identifier yields SessionNone and touches no
// state. First-seen timestamps are write-once.
func (t *SessionTracker) Observe(sessionID string) (SessionEvent, time.Duration) {
	if sessionID == "" {
		return SessionNone, 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if start, ok := t.firstSeen[sessionID]; ok {
		return SessionContinuing, now.Sub(start)
	}

	t.firstSeen[sessionID] = now
	t.order = append(t.order, sessionID)
	if len(t.order) > maxTrackedSessions {
		t.compactLocked()
	}
	return SessionNew, 0
}

// FirstSeen returns the first-seen time for a tracked session without
// recording an observation. The boolean is false for unknown identifiers.
func (t *SessionTracker) FirstSeen(sessionID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.firstSeen[sessionID]
	return start, ok
}

// Len returns the number of tracked sessions.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// compactLocked evicts the oldest entries until compactedSessions remain,
// dropping their first-seen records. Caller must hold the mutex.
func (t *SessionTracker) compactLocked() {
	evict := len(t.order) - compactedSessions
	if evict <= 0 {
		return
	}
	for _, id := range t.order[:evict] {
		delete(t.firstSeen, id)
	}
	remaining := make([]string, compactedSessions)
	copy(remaining, t.order[evict:])
	t.order = remaining
}
