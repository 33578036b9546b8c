// Package producer drives one producer against the marketplace: it registers once and then keeps
// publishing its offers, backing off while its queue is full.
package producer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/retry"
)

const workerService = "producer_worker"

// Offer is one line of a producer's catalog: publish Quantity units of Product, waiting Pace
// after each accepted unit.
type Offer struct {
	Product  domain.Product
	Quantity int
	Pace     time.Duration
}

type Worker struct {
	name          string
	offers        []Offer
	market        domain.Marketplace
	republishWait time.Duration
	rounds        int

	published atomic.Int64

	log     observability.Logger
	retries observability.BoundCounter // worker_retries_total{worker,op="publish"}
}

type Option func(*Worker)

// WithRounds stops the worker after n passes over its offers. Zero means run until cancelled.
func WithRounds(n int) Option {
	return func(w *Worker) {
		if n >= 0 {
			w.rounds = n
		}
	}
}

func New(
	name string,
	offers []Offer,
	market domain.Marketplace,
	republishWait time.Duration,
	tel observability.Observability,
	opts ...Option,
) *Worker {
	tel = observability.Or(tel)
	w := &Worker{
		name:          name,
		offers:        offers,
		market:        market,
		republishWait: republishWait,
		log: tel.Logger().With(
			observability.F("service", workerService),
			observability.F("worker", name),
		),
		retries: tel.Metrics().Counter(observability.MWorkerRetries).Bind(
			observability.L("worker", name),
			observability.L("op", "publish"),
		),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Name() string { return w.name }

// Published reports how many units the marketplace has accepted from this worker.
func (w *Worker) Published() int64 { return w.published.Load() }

// Run registers the producer and publishes until ctx is done or the configured rounds complete.
// Cancellation is a normal stop and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	ctx, logger := logctx.Enrich(ctx, w.log, observability.F("worker", w.name))

	id, err := w.market.RegisterProducer(ctx)
	if err != nil {
		return fmt.Errorf("producer %s: register: %w", w.name, err)
	}
	logger = logger.With(observability.F("producer_id", int(id)))
	ctx = logctx.With(ctx, logger)
	logger.Info("worker_started", observability.F("offers", len(w.offers)), observability.F("rounds", w.rounds))

	if w.units() == 0 {
		logger.Warn("worker_finished", observability.F("published", 0), observability.F("reason", "no units to publish"))
		return nil
	}

	for round := 0; w.rounds == 0 || round < w.rounds; round++ {
		for _, offer := range w.offers {
			for n := 0; n < offer.Quantity; n++ {
				if err := w.publish(ctx, id, offer); err != nil {
					if isStop(err) {
						logger.Info("worker_stopped", observability.F("published", w.Published()))
						return nil
					}
					return err
				}
			}
		}
	}

	logger.Info("worker_finished", observability.F("published", w.Published()))
	return nil
}

func (w *Worker) units() int {
	n := 0
	for _, o := range w.offers {
		n += o.Quantity
	}
	return n
}

func (w *Worker) publish(ctx context.Context, id domain.ProducerID, offer Offer) error {
	_, err := retry.Until(ctx, w.republishWait,
		func(ctx context.Context) (bool, error) {
			return w.market.Publish(ctx, id, offer.Product)
		},
		retry.WithOnReject(func(int) { w.retries.Add(1) }),
	)
	if err != nil {
		if isStop(err) {
			return err
		}
		return fmt.Errorf("producer %s: publish %s: %w", w.name, offer.Product, err)
	}
	w.published.Add(1)

	return retry.Sleep(ctx, offer.Pace)
}

func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
