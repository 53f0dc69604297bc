package checkout

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/ports"
)

// presenceHandle tracks the shopper's online status in their checkout
// record. It is a scoped resource owned by the session that created it:
// acquire on start, release on close. Nothing here is process-global, so
// concurrent sessions cannot interfere with one another.
type presenceHandle struct {
	store     ports.DocumentStore
	visitorID string
	log       zerolog.Logger
	released  bool
}

// startPresence marks the visitor online. Failures are logged only;
// presence is best-effort.
func startPresence(ctx context.Context, store ports.DocumentStore, visitorID string, baseLogger *zerolog.Logger) *presenceHandle {
	h := &presenceHandle{
		store:     store,
		visitorID: visitorID,
		log:       baseLogger.With().Str("component", "presence").Str("visitor_id", visitorID).Logger(),
	}
	if err := h.write(ctx, true); err != nil {
		h.log.Warn().Err(err).Msg("Failed to set online status")
	}
	return h
}

// Release marks the visitor offline. Idempotent.
func (h *presenceHandle) Release(ctx context.Context) {
	if h.released {
		return
	}
	h.released = true
	if err := h.write(ctx, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to set offline status")
	}
}

func (h *presenceHandle) write(ctx context.Context, online bool) error {
	return h.store.WriteMerge(ctx, h.visitorID, map[string]any{
		"visitorId": h.visitorID,
		"online":    online,
		"lastSeen":  time.Now().UTC().Format(time.RFC3339),
	})
}
