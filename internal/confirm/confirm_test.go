package confirm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	tr := NewTracker(0)
	tr.now = clock.now
	return tr, clock
}

func TestConfirmWithinWindow(t *testing.T) {
	tr, clock := newTestTracker()

	assert.False(t, tr.Confirm("delete:1"), "first click arms")
	assert.True(t, tr.Pending("delete:1"))

	clock.advance(2 * time.Second)
	assert.True(t, tr.Confirm("delete:1"), "second click confirms")
	assert.False(t, tr.Pending("delete:1"), "confirming disarms")
}

func TestConfirmWindowLapses(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Confirm("delete:1")
	clock.advance(DefaultWindow + time.Millisecond)

	assert.False(t, tr.Pending("delete:1"))
	assert.False(t, tr.Confirm("delete:1"), "late click re-arms instead of confirming")
	assert.True(t, tr.Pending("delete:1"))
}

func TestConfirmKeysAreIndependent(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Confirm("delete:1")
	assert.False(t, tr.Confirm("delete:2"))
	assert.True(t, tr.Confirm("delete:1"))
}

func TestCancel(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Confirm("delete:1")
	tr.Cancel("delete:1")
	assert.False(t, tr.Confirm("delete:1"))
}
