package ports

import "context"

// Topics published by the checkout core and consumed by the moderation
// side.
const (
	TopicStepSubmitted = "checkout:step_submitted"
	TopicOrderPlaced   = "checkout:order_placed"
)

// StepSubmittedEvent is published every time a shopper submits a gated
// verification step. The moderation bot turns it into a review request.
type StepSubmittedEvent struct {
	VisitorID string
	StepKey   string // record key, e.g. "cardOtp"
	Summary   string // human-readable line for the reviewer
}

// OrderPlacedEvent is published once the final order document is
// written.
type OrderPlacedEvent struct {
	VisitorID string
	OrderID   string
	Total     float64
}

// Event is a generic wrapper for any event payload
type Event struct {
	Topic string
	Data  interface{}
}

// EventHandler is a function that can handle a specific event
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for our in-process pub/sub system
type EventBus interface {
	// Publish sends an event to all subscribers of a topic
	Publish(ctx context.Context, topic string, data interface{}) error

	// Subscribe registers a handler for a specific topic
	Subscribe(topic string, handler EventHandler)
}
