package ports

import (
	"SidraStore/internal/core/domain"
	"context"
)

// OrderRepository defines the persistence operations for finalized
// orders. Creating an order and its items is transactional.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error

	// GetByID finds an order, returning nil when not found.
	GetByID(ctx context.Context, id int) (*domain.Order, error)

	GetItems(ctx context.Context, orderID int) ([]domain.OrderItem, error)

	// ListRecent returns the latest orders, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
}

// CheckoutRecordRepository archives checkout record snapshots durably.
// The in-process document store writes through it so that in-flight
// verification state survives a restart.
type CheckoutRecordRepository interface {
	// Upsert merges the snapshot into the stored record for visitorID.
	Upsert(ctx context.Context, visitorID string, record domain.Record) error

	// Get returns the stored record, or nil when absent.
	Get(ctx context.Context, visitorID string) (domain.Record, error)

	// ListRecent returns the most recently updated records, newest
	// first.
	ListRecent(ctx context.Context, limit int) ([]StoredRecord, error)
}

// StoredRecord pairs a checkout record with its visitor key.
type StoredRecord struct {
	VisitorID string
	Record    domain.Record
}
