package checkout

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// approvalListener owns the single live subscription to the checkout
// record. It coalesces snapshot bursts into one delivery and tracks the
// last seen approval value per step so that a transition fires only on
// the edge from not-approved to approved. The underlying channel may
// redeliver unchanged snapshots at any time.
type approvalListener struct {
	mu       sync.Mutex
	log      zerolog.Logger
	debounce time.Duration
	deliver  func(domain.Record)

	timer       *time.Timer
	latest      domain.Record
	prev        map[string]domain.ApprovalStatus
	unsubscribe func()
	closed      bool
}

func newApprovalListener(debounce time.Duration, deliver func(domain.Record), baseLogger *zerolog.Logger) *approvalListener {
	return &approvalListener{
		log:      baseLogger.With().Str("component", "approval_listener").Logger(),
		debounce: debounce,
		deliver:  deliver,
		prev:     make(map[string]domain.ApprovalStatus),
	}
}

// Start subscribes to the record for key. At most one subscription is
// live at a time; starting again replaces the previous one and resets
// the edge tracking.
func (l *approvalListener) Start(store ports.DocumentStore, key string) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.prev = make(map[string]domain.ApprovalStatus)
	}
	l.mu.Unlock()

	unsub := store.Subscribe(key, l.onSnapshot, func(err error) {
		// Transport failures do not crash the controller; the shopper is
		// simply left waiting.
		l.log.Error().Err(err).Str("key", key).Msg("Checkout record subscription error")
	})

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		unsub()
		return
	}
	l.unsubscribe = unsub
	l.mu.Unlock()
}

// onSnapshot buffers the newest snapshot and (re)starts the coalescing
// window. Only the latest snapshot in a burst is delivered.
func (l *approvalListener) onSnapshot(rec domain.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}

	l.latest = rec
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.debounce, func() {
		l.mu.Lock()
		if l.closed || l.latest == nil {
			l.mu.Unlock()
			return
		}
		snapshot := l.latest
		l.latest = nil
		l.mu.Unlock()

		l.deliver(snapshot)
	})
}

// ObserveApproval records the delivered approval value for a step key
// and reports whether it is an edge into approved. Redelivery of an
// unchanged approved value is not an edge; a pending value re-arms the
// key so a later approval of a resubmission is seen as fresh.
func (l *approvalListener) ObserveApproval(stepKey string, status domain.ApprovalStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.prev[stepKey]
	l.prev[stepKey] = status
	return status == domain.ApprovalApproved && prev != domain.ApprovalApproved
}

// ResetApproval marks a step's approval as pending in the last-seen
// map. Called on resubmission, which writes pending to the record: the
// coalescer may skip that intermediate snapshot, so the edge is re-armed
// here rather than waiting for a delivery that might never come.
func (l *approvalListener) ResetApproval(stepKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prev[stepKey] = domain.ApprovalPending
}

// Close cancels the subscription and any pending delivery.
func (l *approvalListener) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	unsub := l.unsubscribe
	l.unsubscribe = nil
	l.prev = make(map[string]domain.ApprovalStatus)
	l.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
