package ports

import (
	"SidraStore/internal/core/domain"
	"context"
)

// DocumentStore is the realtime merge-document store that backs checkout
// records. It is the only channel between the shopper side and the
// external reviewer.
type DocumentStore interface {
	// WriteMerge applies an additive merge into the record keyed by key,
	// creating the record if it does not exist. Merge semantics: a
	// partial write must never erase fields written earlier.
	WriteMerge(ctx context.Context, key string, partial map[string]any) error

	// ReadOnce returns the current record, or nil if it does not exist.
	ReadOnce(ctx context.Context, key string) (domain.Record, error)

	// Subscribe registers a change listener for one record. The current
	// snapshot is delivered at least once shortly after subscribing, and
	// again after every write; unchanged snapshots may be redelivered.
	// Transport failures go to onError. The returned function cancels
	// the subscription.
	Subscribe(key string, onChange func(domain.Record), onError func(error)) (unsubscribe func())
}
