package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
)

type producerQueue struct {
	mu     sync.Mutex
	queued int
}

// Marketplace is the in-memory coordinator.
//
// Each producer's queue counter has its own mutex, so publish and claim traffic for different
// producers never contends. The available pool has a separate mutex. A producer mutex and the
// pool mutex are never held together.
type Marketplace struct {
	capacity int
	sink     domain.ReceiptSink

	nextProducer atomic.Int64
	producersMu  sync.RWMutex
	producers    map[domain.ProducerID]*producerQueue

	nextCart atomic.Int64
	cartsMu  sync.RWMutex
	carts    map[domain.CartID]*domain.Cart
	placed   atomic.Int64

	pool *pool
}

var _ domain.Marketplace = (*Marketplace)(nil)

// NewMarketplace builds a coordinator whose producers may each have at most queueCapacity
// items published and unclaimed. Receipts from PlaceOrder go to sink; nil discards them.
func NewMarketplace(queueCapacity int, sink domain.ReceiptSink) (*Marketplace, error) {
	if queueCapacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}
	if sink == nil {
		sink = domain.DiscardSink
	}
	return &Marketplace{
		capacity:  queueCapacity,
		sink:      sink,
		producers: make(map[domain.ProducerID]*producerQueue),
		carts:     make(map[domain.CartID]*domain.Cart),
		pool:      newPool(),
	}, nil
}

func (m *Marketplace) QueueCapacity() int { return m.capacity }

func (m *Marketplace) RegisterProducer(ctx context.Context) (domain.ProducerID, error) {
	_ = ctx
	id := domain.ProducerID(m.nextProducer.Add(1) - 1)

	m.producersMu.Lock()
	m.producers[id] = &producerQueue{}
	m.producersMu.Unlock()

	return id, nil
}

// Publish reserves a slot in the producer's queue and makes the item available.
func (m *Marketplace) Publish(ctx context.Context, producer domain.ProducerID, p domain.Product) (bool, error) {
	_ = ctx
	q, err := m.producer(producer)
	if err != nil {
		return false, err
	}

	q.mu.Lock()
	if q.queued >= m.capacity {
		q.mu.Unlock()
		return false, nil
	}
	q.queued++
	q.mu.Unlock()

	m.pool.put(p, producer)
	return true, nil
}

func (m *Marketplace) NewCart(ctx context.Context) (domain.CartID, error) {
	_ = ctx
	id := domain.CartID(m.nextCart.Add(1) - 1)

	m.cartsMu.Lock()
	m.carts[id] = domain.NewCart(id)
	m.cartsMu.Unlock()

	return id, nil
}

// AddToCart claims one available instance of p. At most one caller can claim a given instance.
func (m *Marketplace) AddToCart(ctx context.Context, cartID domain.CartID, p domain.Product) (bool, error) {
	_ = ctx
	cart, err := m.cart(cartID)
	if err != nil {
		return false, err
	}

	owner, ok := m.pool.take(p)
	if !ok {
		return false, nil
	}

	q, err := m.producer(owner)
	if err != nil {
		// Pool entries are only created for registered producers.
		panic(fmt.Sprintf("marketplace: pool holds item of unregistered producer %d", owner))
	}
	q.mu.Lock()
	q.queued--
	q.mu.Unlock()

	cart.Add(domain.Line{Product: p, Producer: owner})
	return true, nil
}

// RemoveFromCart returns p to the pool and re-occupies a slot in its producer's queue. It is
// rejected while that queue is full.
func (m *Marketplace) RemoveFromCart(ctx context.Context, cartID domain.CartID, p domain.Product) (bool, error) {
	_ = ctx
	cart, err := m.cart(cartID)
	if err != nil {
		return false, err
	}

	line, ok := cart.Find(p)
	if !ok {
		return false, fmt.Errorf("%w: cart %d has no %s", domain.ErrItemNotInCart, cartID, p)
	}

	q, err := m.producer(line.Producer)
	if err != nil {
		return false, err
	}
	q.mu.Lock()
	if q.queued >= m.capacity {
		q.mu.Unlock()
		return false, nil
	}
	q.queued++
	q.mu.Unlock()

	if _, err := cart.Remove(p); err != nil {
		return false, err
	}
	m.pool.put(p, line.Producer)
	return true, nil
}

// PlaceOrder retires the cart and emits one receipt per item, in cart order, attributed to the
// buyer stored on ctx.
func (m *Marketplace) PlaceOrder(ctx context.Context, cartID domain.CartID) ([]domain.Product, error) {
	m.cartsMu.Lock()
	cart, ok := m.carts[cartID]
	delete(m.carts, cartID)
	m.cartsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownCart, cartID)
	}
	m.placed.Add(1)

	buyer := domain.BuyerFrom(ctx)
	placedAt := time.Now().UTC()

	var errs []error
	for _, line := range cart.Lines() {
		err := m.sink.Emit(ctx, domain.Receipt{
			Buyer:    buyer,
			CartID:   cartID,
			Product:  line.Product,
			Producer: line.Producer,
			PlacedAt: placedAt,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	items := cart.Products()
	if err := errors.Join(errs...); err != nil {
		return items, fmt.Errorf("marketplace: emit receipts: %w", err)
	}
	return items, nil
}

func (m *Marketplace) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	_ = ctx

	type entry struct {
		id domain.ProducerID
		q  *producerQueue
	}
	m.producersMu.RLock()
	entries := make([]entry, 0, len(m.producers))
	for id, q := range m.producers {
		entries = append(entries, entry{id: id, q: q})
	}
	m.producersMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	producers := make([]domain.ProducerStats, 0, len(entries))
	for _, e := range entries {
		e.q.mu.Lock()
		queued := e.q.queued
		e.q.mu.Unlock()
		producers = append(producers, domain.ProducerStats{ID: e.id, Queued: queued})
	}

	m.cartsMu.RLock()
	open := len(m.carts)
	m.cartsMu.RUnlock()

	return domain.Snapshot{
		QueueCapacity: m.capacity,
		Producers:     producers,
		Available:     m.pool.levels(),
		OpenCarts:     open,
		PlacedOrders:  m.placed.Load(),
	}, nil
}

func (m *Marketplace) producer(id domain.ProducerID) (*producerQueue, error) {
	m.producersMu.RLock()
	q, ok := m.producers[id]
	m.producersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownProducer, id)
	}
	return q, nil
}

func (m *Marketplace) cart(id domain.CartID) (*domain.Cart, error) {
	m.cartsMu.RLock()
	c, ok := m.carts[id]
	m.cartsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownCart, id)
	}
	return c, nil
}
