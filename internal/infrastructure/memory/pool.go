package memory

import (
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
)

// pool is the multiset of published, unclaimed items. Every instance remembers the producer
// that published it.
type pool struct {
	mu    sync.Mutex
	stock map[domain.Product][]domain.ProducerID
}

func newPool() *pool {
	return &pool{stock: make(map[domain.Product][]domain.ProducerID)}
}

func (p *pool) put(product domain.Product, owner domain.ProducerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stock[product] = append(p.stock[product], owner)
}

// take removes one instance of product and reports who published it.
func (p *pool) take(product domain.Product) (domain.ProducerID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	owners := p.stock[product]
	if len(owners) == 0 {
		return 0, false
	}
	last := len(owners) - 1
	owner := owners[last]
	if last == 0 {
		delete(p.stock, product)
	} else {
		p.stock[product] = owners[:last]
	}
	return owner, true
}

func (p *pool) levels() []domain.StockLevel {
	p.mu.Lock()
	out := make([]domain.StockLevel, 0, len(p.stock))
	for product, owners := range p.stock {
		out = append(out, domain.StockLevel{Product: product, Count: len(owners)})
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Product.String() < out[j].Product.String()
	})
	return out
}
