// Package consumer drives one buyer: for each of its carts it opens a cart, applies the add and
// remove steps in order, retrying rejected ones, then checks out.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/pkg/retry"
)

const workerService = "consumer_worker"

var ErrUnknownOp = errors.New("consumer: unknown step op")

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Step adds or removes Quantity units of Product, one at a time.
type Step struct {
	Op       Op
	Product  domain.Product
	Quantity int
}

type Worker struct {
	name      string
	carts     [][]Step
	market    domain.Marketplace
	retryWait time.Duration

	log         observability.Logger
	addRetries  observability.BoundCounter // worker_retries_total{worker,op="add"}
	dropRetries observability.BoundCounter // worker_retries_total{worker,op="remove"}
}

func New(
	name string,
	carts [][]Step,
	market domain.Marketplace,
	retryWait time.Duration,
	tel observability.Observability,
) *Worker {
	tel = observability.Or(tel)
	retries := tel.Metrics().Counter(observability.MWorkerRetries)
	return &Worker{
		name:      name,
		carts:     carts,
		market:    market,
		retryWait: retryWait,
		log: tel.Logger().With(
			observability.F("service", workerService),
			observability.F("worker", name),
		),
		addRetries:  retries.Bind(observability.L("worker", name), observability.L("op", string(OpAdd))),
		dropRetries: retries.Bind(observability.L("worker", name), observability.L("op", string(OpRemove))),
	}
}

func (w *Worker) Name() string { return w.name }

// Run processes every cart in order and returns once the last one is placed. Cancellation
// stops the worker early and returns nil; the open cart is abandoned.
func (w *Worker) Run(ctx context.Context) error {
	ctx = domain.WithBuyer(ctx, w.name)
	ctx, logger := logctx.Enrich(ctx, w.log, observability.F("worker", w.name))
	logger.Info("worker_started", observability.F("carts", len(w.carts)))

	for i, steps := range w.carts {
		items, err := w.shop(ctx, steps)
		if err != nil {
			if isStop(err) {
				logger.Info("worker_stopped", observability.F("carts_placed", i))
				return nil
			}
			return err
		}
		logger.Debug("cart_placed", observability.F("items", len(items)))
	}

	logger.Info("worker_finished", observability.F("carts_placed", len(w.carts)))
	return nil
}

func (w *Worker) shop(ctx context.Context, steps []Step) ([]domain.Product, error) {
	cart, err := w.market.NewCart(ctx)
	if err != nil {
		return nil, fmt.Errorf("consumer %s: new cart: %w", w.name, err)
	}

	for _, step := range steps {
		attempt, retries, err := w.stepFunc(cart, step)
		if err != nil {
			return nil, err
		}
		for n := 0; n < step.Quantity; n++ {
			_, err := retry.Until(ctx, w.retryWait, attempt,
				retry.WithOnReject(func(int) { retries.Add(1) }),
			)
			if err != nil {
				if isStop(err) {
					return nil, err
				}
				return nil, fmt.Errorf("consumer %s: %s %s: %w", w.name, step.Op, step.Product, err)
			}
		}
	}

	items, err := w.market.PlaceOrder(ctx, cart)
	if err != nil {
		return items, fmt.Errorf("consumer %s: place order: %w", w.name, err)
	}
	return items, nil
}

func (w *Worker) stepFunc(cart domain.CartID, step Step) (retry.AttemptFunc, observability.BoundCounter, error) {
	switch step.Op {
	case OpAdd:
		return func(ctx context.Context) (bool, error) {
			return w.market.AddToCart(ctx, cart, step.Product)
		}, w.addRetries, nil
	case OpRemove:
		return func(ctx context.Context) (bool, error) {
			return w.market.RemoveFromCart(ctx, cart, step.Product)
		}, w.dropRetries, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownOp, step.Op)
	}
}

func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
