package marketplace

// Line is one claimed item instance held by a cart, tagged with the producer that published it.
type Line struct {
	Product  Product
	Producer ProducerID
}

// Cart holds the items one consumer has claimed. It is owned by that consumer alone and has
// no internal locking.
type Cart struct {
	ID    CartID
	lines []Line
}

func NewCart(id CartID) *Cart {
	return &Cart{ID: id}
}

func (c *Cart) Add(line Line) {
	c.lines = append(c.lines, line)
}

// Find returns the first line holding p.
func (c *Cart) Find(p Product) (Line, bool) {
	for _, l := range c.lines {
		if l.Product == p {
			return l, true
		}
	}
	return Line{}, false
}

// Remove drops the first line holding p.
func (c *Cart) Remove(p Product) (Line, error) {
	for i, l := range c.lines {
		if l.Product == p {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return l, nil
		}
	}
	return Line{}, ErrItemNotInCart
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Products() []Product {
	out := make([]Product, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l.Product)
	}
	return out
}

func (c *Cart) Len() int { return len(c.lines) }
