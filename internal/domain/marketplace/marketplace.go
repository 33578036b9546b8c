package marketplace

import (
	"context"
	"errors"
)

var (
	ErrInvalidCapacity = errors.New("marketplace: queue capacity must be greater than zero")
	ErrUnknownProducer = errors.New("marketplace: unknown producer")
	ErrUnknownCart     = errors.New("marketplace: unknown cart")
	ErrItemNotInCart   = errors.New("marketplace: item not in cart")
)

// Marketplace is the coordinator shared by every producer and consumer worker.
//
// Publish, AddToCart and RemoveFromCart never wait: a false result means the request was
// rejected for a transient reason (queue full, item not available) and the caller should back
// off and retry. Errors are reserved for contract violations such as ids the coordinator never
// issued.
type Marketplace interface {
	RegisterProducer(ctx context.Context) (ProducerID, error)
	Publish(ctx context.Context, producer ProducerID, p Product) (bool, error)
	NewCart(ctx context.Context) (CartID, error)
	AddToCart(ctx context.Context, cart CartID, p Product) (bool, error)
	RemoveFromCart(ctx context.Context, cart CartID, p Product) (bool, error)
	PlaceOrder(ctx context.Context, cart CartID) ([]Product, error)
}

// StatsReader exposes a point-in-time view of the coordinator.
type StatsReader interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Snapshot is a read model of the coordinator. Each producer and the pool are read under their
// own locks, so the values are not a single consistent cut.
type Snapshot struct {
	QueueCapacity int             `json:"queue_capacity"`
	Producers     []ProducerStats `json:"producers"`
	Available     []StockLevel    `json:"available"`
	OpenCarts     int             `json:"open_carts"`
	PlacedOrders  int64           `json:"placed_orders"`
}

type ProducerStats struct {
	ID     ProducerID `json:"id"`
	Queued int        `json:"queued"`
}

type StockLevel struct {
	Product Product `json:"product"`
	Count   int     `json:"count"`
}

// TotalAvailable sums the available counts across products.
func (s Snapshot) TotalAvailable() int {
	n := 0
	for _, lvl := range s.Available {
		n += lvl.Count
	}
	return n
}
