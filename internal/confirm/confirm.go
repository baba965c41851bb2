// Package confirm implements two-step confirmation for destructive actions:
// the first request arms the action, a second one within the window runs it.
package confirm

import (
	"sync"
	"time"
)

// DefaultWindow is how long an armed action waits for its confirmation.
const DefaultWindow = 3 * time.Second

// Tracker remembers armed actions per key, typically session ID plus target.
type Tracker struct {
	Window time.Duration

	mu    sync.Mutex
	armed map[string]time.Time
	now   func() time.Time
}

// NewTracker returns a tracker with the given window; zero means
// DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{Window: window, armed: map[string]time.Time{}, now: time.Now}
}

// Confirm reports whether key was armed within the window. If it was, the
// action may proceed and the key is disarmed. Otherwise key is armed now and
// the caller should ask for confirmation.
func (t *Tracker) Confirm(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	if at, ok := t.armed[key]; ok && now.Sub(at) <= t.Window {
		delete(t.armed, key)
		return true
	}
	t.armed[key] = now
	return false
}

// Pending reports whether key is armed and still waiting.
func (t *Tracker) Pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	at, ok := t.armed[key]
	return ok && t.now().Sub(at) <= t.Window
}

// Cancel disarms key.
func (t *Tracker) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.armed, key)
}

func (t *Tracker) sweep(now time.Time) {
	for k, at := range t.armed {
		if now.Sub(at) > t.Window {
			delete(t.armed, k)
		}
	}
}
