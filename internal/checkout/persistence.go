package checkout

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

const (
	visitorKey  = "visitor"
	shippingKey = "shippingInfo"

	// visitorPrefix marks identifiers minted by this app. Anything else
	// in the slot is treated as malformed and regenerated.
	visitorPrefix = "app-"
)

// Bridge persists the small slice of checkout state that must survive a
// reload: the visitor identifier and the in-progress shipping form.
// Shipping saves are debounced while the shopper is typing and flushed
// immediately when they leave the shipping step. Nothing sensitive
// (card data, OTP codes, identity numbers) ever goes through here.
type Bridge struct {
	mu       sync.Mutex
	kv       ports.KVStore
	log      zerolog.Logger
	debounce time.Duration
	prefix   string

	timer   *time.Timer
	pending *domain.ShippingInfo
	closed  bool
}

// NewBridge creates a persistence bridge over the given KV store.
// prefix namespaces the shipping slot when several sessions share one
// store; pass "" for the default slot.
func NewBridge(kv ports.KVStore, prefix string, debounce time.Duration, baseLogger *zerolog.Logger) *Bridge {
	return &Bridge{
		kv:       kv,
		log:      baseLogger.With().Str("component", "persistence_bridge").Logger(),
		debounce: debounce,
		prefix:   prefix,
	}
}

// VisitorID returns the durable visitor identifier, minting and
// persisting a fresh one exactly once if the slot is empty or
// malformed. Two calls against the same store always agree.
func (b *Bridge) VisitorID() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.kv.Get(visitorKey); ok && strings.HasPrefix(id, visitorPrefix) {
		return id, nil
	}

	id := mintVisitorID()
	if err := b.kv.Set(visitorKey, id); err != nil {
		return "", fmt.Errorf("could not persist visitor id: %w", err)
	}
	b.log.Info().Str("visitor_id", id).Msg("Minted new visitor id")
	return id, nil
}

// mintVisitorID synthesizes a reasonably-unique opaque identifier.
func mintVisitorID() string {
	return fmt.Sprintf("%s%d-%s", visitorPrefix, time.Now().UnixMilli(), randToken(13))
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randToken(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(tokenAlphabet[rand.Intn(len(tokenAlphabet))])
	}
	return sb.String()
}

// LoadShipping restores a previously-saved shipping form, if any.
func (b *Bridge) LoadShipping() (domain.ShippingInfo, bool) {
	raw, ok := b.kv.Get(b.prefix + shippingKey)
	if !ok || raw == "" {
		return domain.ShippingInfo{}, false
	}
	var info domain.ShippingInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		b.log.Warn().Err(err).Msg("Failed to parse saved shipping info")
		return domain.ShippingInfo{}, false
	}
	return info, true
}

// SaveShippingDebounced schedules a save after the debounce window of
// input inactivity. Each call restarts the window with the latest data.
func (b *Bridge) SaveShippingDebounced(info domain.ShippingInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.pending = &info
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.flushLocked()
	})
}

// Flush writes any pending shipping data immediately, bypassing the
// debounce. Called the moment the shopper leaves the shipping step so
// last-second edits are not lost.
func (b *Bridge) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.flushLocked()
}

func (b *Bridge) flushLocked() {
	if b.pending == nil {
		return
	}
	raw, err := json.Marshal(b.pending)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to marshal shipping info")
		return
	}
	if err := b.kv.Set(b.prefix+shippingKey, string(raw)); err != nil {
		b.log.Error().Err(err).Msg("Failed to persist shipping info")
		return
	}
	b.pending = nil
}

// Close flushes pending state and cancels the debounce timer. A closed
// bridge drops later saves so a leaked timer cannot fire after
// teardown.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.flushLocked()
}
