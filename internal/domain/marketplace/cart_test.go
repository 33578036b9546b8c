package marketplace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tea    = Product{Category: "Tea", Name: "Linden", Price: 9}
	coffee = Product{Category: "Coffee", Name: "Indonezia", Price: 1}
)

func Test_Cart_RemoveTakesFirstMatchingLine(t *testing.T) {
	c := NewCart(3)
	c.Add(Line{Product: tea, Producer: 0})
	c.Add(Line{Product: coffee, Producer: 1})
	c.Add(Line{Product: tea, Producer: 2})

	removed, err := c.Remove(tea)

	require.NoError(t, err)
	assert.Equal(t, ProducerID(0), removed.Producer)
	assert.Equal(t, []Line{{Product: coffee, Producer: 1}, {Product: tea, Producer: 2}}, c.Lines())
}

func Test_Cart_RemoveMissingItem(t *testing.T) {
	c := NewCart(0)
	c.Add(Line{Product: coffee, Producer: 0})

	_, err := c.Remove(tea)

	assert.ErrorIs(t, err, ErrItemNotInCart)
	assert.Equal(t, 1, c.Len())
}

func Test_Cart_FindAndProductsKeepOrder(t *testing.T) {
	c := NewCart(0)
	c.Add(Line{Product: coffee, Producer: 4})
	c.Add(Line{Product: tea, Producer: 5})

	line, ok := c.Find(tea)
	assert.True(t, ok)
	assert.Equal(t, ProducerID(5), line.Producer)

	_, ok = c.Find(Product{Category: "Tea", Name: "Wild Cherry", Price: 5})
	assert.False(t, ok)

	assert.Equal(t, []Product{coffee, tea}, c.Products())
}

func Test_Cart_LinesIsACopy(t *testing.T) {
	c := NewCart(0)
	c.Add(Line{Product: tea})

	lines := c.Lines()
	lines[0].Producer = 42

	assert.Equal(t, ProducerID(0), c.Lines()[0].Producer)
}

func Test_Buyer_RoundTripsThroughContext(t *testing.T) {
	assert.Equal(t, UnknownBuyer, BuyerFrom(context.Background()))
	assert.Equal(t, "cons-1", BuyerFrom(WithBuyer(context.Background(), "cons-1")))
	assert.Equal(t, UnknownBuyer, BuyerFrom(WithBuyer(context.Background(), "")))
}

func Test_ItemPurchasedEvent_CarriesReceipt(t *testing.T) {
	r := Receipt{Buyer: "cons-0", CartID: 7, Product: tea, Producer: 2}

	evt := NewItemPurchasedEvent(r)

	assert.NotEmpty(t, evt.EventID)
	assert.False(t, evt.OccurredAt.IsZero())
	back := evt.Receipt()
	assert.Equal(t, r.Buyer, back.Buyer)
	assert.Equal(t, r.CartID, back.CartID)
	assert.Equal(t, r.Product, back.Product)
	assert.Equal(t, r.Producer, back.Producer)
}

func Test_Product_String(t *testing.T) {
	assert.Equal(t, "Tea(name=Linden, price=9)", tea.String())
}
