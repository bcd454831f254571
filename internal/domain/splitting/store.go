package splitting

import (
	"context"
	"errors"
	"time"
)

// Errors surfaced by OrderStore adapters
var (
	ErrStoreNotConfigured   = errors.New("splitting: order store not configured")
	ErrStoreUnavailable     = errors.New("splitting: order store temporarily unavailable")
	ErrStoreRequestFailed   = errors.New("splitting: order store request failed")
	ErrStoreInvalidResponse = errors.New("splitting: invalid order store response")
	ErrOrderNotFound        = errors.New("splitting: order not found")
)

// OrderStore is the port interface for the external order store.
// The core depends only on these two operations; authentication and
// timeout policy belong to the adapter.
type OrderStore interface {
	// GetOrder fetches one order by its store identifier.
	GetOrder(ctx context.Context, orderID int64) (*Order, error)

	// UpdateLineItems replaces the order's full line-item list.
	// The store applies the list last-write-wins; partial application is
	// not detectable through this contract and the call is treated as
	// atomic per response status.
	UpdateLineItems(ctx context.Context, orderID int64, items []LineItem) error
}

// DeliveryDeduper records webhook delivery IDs so redelivered events are
// acknowledged without reprocessing. The event source delivers at least
// once; the reconciler issues at most one update per recorded delivery.
type DeliveryDeduper interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if it was
	// already processed.
	MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error)

	// Release forgets a delivery mark so the event can be retried.
	// Used when processing fails after the mark was taken.
	Release(ctx context.Context, deliveryID string) error

	// Close releases the store's resources.
	Close() error
}
