// Package receipt holds ReceiptSink implementations for checkout output.
package receipt

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

// LogSink writes one item_bought line per receipt.
type LogSink struct {
	log observability.Logger
}

var _ domain.ReceiptSink = (*LogSink)(nil)

func NewLogSink(logger observability.Logger) *LogSink {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogSink{log: logger.With(observability.F("component", "receipt_log"))}
}

func (s *LogSink) Emit(ctx context.Context, r domain.Receipt) error {
	logctx.FromOr(ctx, s.log).Info("item_bought",
		observability.F("buyer", r.Buyer),
		observability.F("product", r.Product.String()),
		observability.F("category", r.Product.Category),
		observability.F("producer_id", int(r.Producer)),
		observability.F("cart_id", int(r.CartID)),
		observability.F("summary", fmt.Sprintf("%s bought %s", r.Buyer, r.Product)),
	)
	return nil
}

// OutboxSink turns each receipt into an ItemPurchasedEvent on the bus.
type OutboxSink struct {
	pub domoutbox.Publisher
}

var _ domain.ReceiptSink = (*OutboxSink)(nil)

func NewOutboxSink(pub domoutbox.Publisher) *OutboxSink {
	return &OutboxSink{pub: pub}
}

func (s *OutboxSink) Emit(ctx context.Context, r domain.Receipt) error {
	evt := domain.NewItemPurchasedEvent(r)
	if err := s.pub.Publish(ctx, evt); err != nil {
		return fmt.Errorf("receipt: publish %s: %w", evt.EventName(), err)
	}
	return nil
}

// Fanout emits every receipt to each sink in turn and reports the first failure.
type Fanout []domain.ReceiptSink

func (f Fanout) Emit(ctx context.Context, r domain.Receipt) error {
	var first error
	for _, s := range f {
		if err := s.Emit(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
