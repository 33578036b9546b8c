package marketplace

import "fmt"

// ProducerID identifies a registered producer. Ids are handed out once, starting at 0.
type ProducerID int

// CartID identifies a cart. Ids are handed out once, starting at 0.
type CartID int

// Product is an immutable catalog value. Two products with equal fields are the same item
// kind; the marketplace tracks instances of it separately.
type Product struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Price    int64  `json:"price" yaml:"price"`
}

func (p Product) String() string {
	return fmt.Sprintf("%s(name=%s, price=%d)", p.Category, p.Name, p.Price)
}
