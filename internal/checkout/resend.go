package checkout

import (
	"sync"
	"time"
)

// ResendTimer gates the "resend code" action on OTP steps. The window is
// armed the moment the OTP-triggering action completes; while it is
// open, resend is disabled and the remaining seconds are exposed for
// display. The timer is per-step: re-entering a step re-arms the full
// window.
type ResendTimer struct {
	mu       sync.Mutex
	window   time.Duration
	now      func() time.Time
	deadline time.Time
}

// NewResendTimer creates an armed timer with the given window.
func NewResendTimer(window time.Duration, now func() time.Time) *ResendTimer {
	if now == nil {
		now = time.Now
	}
	t := &ResendTimer{window: window, now: now}
	t.Restart()
	return t
}

// Restart re-arms the full window from now.
func (t *ResendTimer) Restart() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deadline = t.now().Add(t.window)
}

// CanResend reports whether the window has elapsed. It becomes true
// exactly at the deadline.
func (t *ResendTimer) CanResend() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.now().Before(t.deadline)
}

// Remaining returns the whole seconds left before resend is enabled,
// rounded up; zero once the window has elapsed.
func (t *ResendTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	left := t.deadline.Sub(t.now())
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	return secs
}
