package checkout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a hand-driven clock for timer tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestResendTimer_WindowGating(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)}
	timer := NewResendTimer(30*time.Second, clock.Now)

	// Freshly armed: closed window.
	assert.False(t, timer.CanResend())
	assert.Equal(t, 30, timer.Remaining())

	clock.Advance(29 * time.Second)
	assert.False(t, timer.CanResend())
	assert.Equal(t, 1, timer.Remaining())

	// Opens exactly at the deadline.
	clock.Advance(time.Second)
	assert.True(t, timer.CanResend())
	assert.Equal(t, 0, timer.Remaining())

	// Restart re-arms the full window.
	timer.Restart()
	assert.False(t, timer.CanResend())
	assert.Equal(t, 30, timer.Remaining())
}

func TestResendTimer_RemainingRoundsUp(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)}
	timer := NewResendTimer(30*time.Second, clock.Now)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 30, timer.Remaining(), "partial seconds round up")

	clock.Advance(time.Second)
	assert.Equal(t, 29, timer.Remaining())
}
