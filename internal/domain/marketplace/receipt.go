package marketplace

import (
	"context"
	"time"
)

// Receipt is one checkout record: a single item leaving the marketplace with its buyer.
type Receipt struct {
	Buyer    string
	CartID   CartID
	Product  Product
	Producer ProducerID
	PlacedAt time.Time
}

// ReceiptSink receives checkout records. PlaceOrder writes to it once per cart line, in order.
type ReceiptSink interface {
	Emit(ctx context.Context, r Receipt) error
}

// SinkFunc adapts a function to ReceiptSink.
type SinkFunc func(ctx context.Context, r Receipt) error

func (f SinkFunc) Emit(ctx context.Context, r Receipt) error { return f(ctx, r) }

// DiscardSink drops every receipt.
var DiscardSink ReceiptSink = SinkFunc(func(context.Context, Receipt) error { return nil })

// UnknownBuyer is reported when checkout runs on a context without a buyer.
const UnknownBuyer = "unknown"

type buyerKey struct{}

// WithBuyer tags ctx with the identity of the consumer acting on it.
func WithBuyer(ctx context.Context, buyer string) context.Context {
	if buyer == "" {
		return ctx
	}
	return context.WithValue(ctx, buyerKey{}, buyer)
}

// BuyerFrom returns the buyer stored by WithBuyer, or UnknownBuyer.
func BuyerFrom(ctx context.Context) string {
	if ctx == nil {
		return UnknownBuyer
	}
	if b, ok := ctx.Value(buyerKey{}).(string); ok && b != "" {
		return b
	}
	return UnknownBuyer
}
