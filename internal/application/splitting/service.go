package splitting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bundleflow/backend/internal/domain/splitting"
	"github.com/bundleflow/backend/internal/infrastructure/logger"
	"github.com/bundleflow/backend/internal/infrastructure/telemetry"
)

// Outcome describes what the reconciliation step did for one event.
type Outcome string

const (
	// OutcomeNoChange means no line item matched a bundle; no update was issued.
	OutcomeNoChange Outcome = "no_change"
	// OutcomeUpdated means the order was rewritten on the store.
	OutcomeUpdated Outcome = "updated"
	// OutcomeDuplicate means this delivery was already processed; skipped.
	OutcomeDuplicate Outcome = "duplicate"
)

// ProcessResult summarizes one trip through the resolve/reconcile pipeline.
type ProcessResult struct {
	Outcome   Outcome
	OrderID   int64
	OrderName string
	// ItemsBefore/ItemsAfter count line items around the split
	ItemsBefore int
	ItemsAfter  int
}

// OrderSplitService runs orders through the bundle resolver and, when a
// bundle was expanded, issues exactly one line-item update to the order
// store. The service itself is stateless; redelivered webhooks are
// filtered through the DeliveryDeduper before any work happens.
type OrderSplitService struct {
	store    splitting.OrderStore
	deduper  splitting.DeliveryDeduper
	mapping  splitting.BundleMapping
	dedupTTL time.Duration
	logger   *zap.Logger
}

// NewOrderSplitService creates a new OrderSplitService.
// The mapping must already be validated; it is treated as immutable.
func NewOrderSplitService(
	store splitting.OrderStore,
	deduper splitting.DeliveryDeduper,
	mapping splitting.BundleMapping,
	dedupTTL time.Duration,
	logger *zap.Logger,
) *OrderSplitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSplitService{
		store:    store,
		deduper:  deduper,
		mapping:  mapping,
		dedupTTL: dedupTTL,
		logger:   logger,
	}
}

// ProcessOrder runs one webhook-delivered order through the pipeline.
// deliveryID identifies the delivery instance (not the logical order);
// a delivery already marked as processed is acknowledged as a duplicate
// without touching the store. When the update call fails, the mark is
// released so the event source's redelivery can retry.
func (s *OrderSplitService) ProcessOrder(ctx context.Context, order *splitting.Order, deliveryID string) (*ProcessResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "splitting", "process_order")
	defer span.End()
	telemetry.SetAttributes(span, "order_id", order.ID, "delivery_id", deliveryID)
	log := logger.WithTraceContext(ctx, s.logger)

	if deliveryID != "" && s.deduper != nil {
		fresh, err := s.deduper.MarkProcessed(ctx, deliveryID, s.dedupTTL)
		if err != nil {
			// A broken deduper must not drop orders; at-least-once
			// processing is safer than skipping.
			log.Warn("delivery dedup check failed, processing anyway",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
		} else if !fresh {
			log.Info("duplicate delivery skipped",
				zap.String("delivery_id", deliveryID),
				zap.Int64("order_id", order.ID),
			)
			return &ProcessResult{
				Outcome:     OutcomeDuplicate,
				OrderID:     order.ID,
				OrderName:   order.Name,
				ItemsBefore: len(order.LineItems),
				ItemsAfter:  len(order.LineItems),
			}, nil
		}
	}

	result, err := s.reconcile(ctx, order)
	if err != nil && deliveryID != "" && s.deduper != nil {
		if relErr := s.deduper.Release(ctx, deliveryID); relErr != nil {
			log.Warn("failed to release delivery mark",
				zap.String("delivery_id", deliveryID),
				zap.Error(relErr),
			)
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

// ProcessOrderByID fetches an order from the store and runs it through
// the same pipeline. This is the manual-trigger path; it performs no
// delivery deduplication.
func (s *OrderSplitService) ProcessOrderByID(ctx context.Context, orderID int64) (*ProcessResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "splitting", "process_order_by_id")
	defer span.End()
	telemetry.SetAttributes(span, "order_id", orderID)

	if s.store == nil {
		return nil, splitting.ErrStoreNotConfigured
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch order %d: %w", orderID, err)
	}

	result, err := s.reconcile(ctx, order)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return result, err
}

// reconcile resolves the order and issues at most one update call.
func (s *OrderSplitService) reconcile(ctx context.Context, order *splitting.Order) (*ProcessResult, error) {
	log := logger.WithTraceContext(ctx, s.logger)
	split := splitting.Resolve(order.LineItems, s.mapping)

	result := &ProcessResult{
		OrderID:     order.ID,
		OrderName:   order.Name,
		ItemsBefore: len(order.LineItems),
		ItemsAfter:  len(split.NewLineItems),
	}

	if !split.Changed {
		result.Outcome = OutcomeNoChange
		log.Debug("no bundle items in order",
			zap.Int64("order_id", order.ID),
			zap.String("order_name", order.Name),
		)
		return result, nil
	}

	if s.store == nil {
		return nil, splitting.ErrStoreNotConfigured
	}
	if err := s.store.UpdateLineItems(ctx, order.ID, split.NewLineItems); err != nil {
		return nil, fmt.Errorf("update order %d line items: %w", order.ID, err)
	}

	result.Outcome = OutcomeUpdated
	log.Info("order rewritten with bundle components",
		zap.Int64("order_id", order.ID),
		zap.String("order_name", order.Name),
		zap.Int("items_before", result.ItemsBefore),
		zap.Int("items_after", result.ItemsAfter),
	)
	return result, nil
}

// BundleSKUs exposes the configured bundle SKU set for introspection.
func (s *OrderSplitService) BundleSKUs() []string {
	return s.mapping.SKUs()
}
