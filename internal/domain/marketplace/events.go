package marketplace

import (
	"time"

	"github.com/google/uuid"
)

// ItemPurchasedEvent is emitted for every item that leaves the marketplace through checkout.
type ItemPurchasedEvent struct {
	EventID    string
	Buyer      string
	CartID     CartID
	Product    Product
	Producer   ProducerID
	OccurredAt time.Time
}

func (ItemPurchasedEvent) EventName() string { return "marketplace.item_purchased" }

func NewItemPurchasedEvent(r Receipt) ItemPurchasedEvent {
	occurred := r.PlacedAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return ItemPurchasedEvent{
		EventID:    uuid.NewString(),
		Buyer:      r.Buyer,
		CartID:     r.CartID,
		Product:    r.Product,
		Producer:   r.Producer,
		OccurredAt: occurred,
	}
}

// Receipt converts the event back into the checkout record it was built from.
func (e ItemPurchasedEvent) Receipt() Receipt {
	return Receipt{
		Buyer:    e.Buyer,
		CartID:   e.CartID,
		Product:  e.Product,
		Producer: e.Producer,
		PlacedAt: e.OccurredAt,
	}
}
