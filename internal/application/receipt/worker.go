package receipt

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application"
	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

const workerService = "receipt_worker"

// Worker feeds ItemPurchasedEvents from the bus into the record use case.
type Worker struct {
	subscriber domoutbox.Subscriber
	useCase    application.UseCase[domain.ItemPurchasedEvent, *RecordResult]
	log        observability.Logger
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	useCase application.UseCase[domain.ItemPurchasedEvent, *RecordResult],
	tel observability.Observability,
) *Worker {
	return &Worker{
		subscriber: subscriber,
		useCase:    useCase,
		log:        observability.Or(tel).Logger().With(observability.F("service", workerService)),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	w.subscriber.Subscribe(domain.ItemPurchasedEvent{}.EventName(), domoutbox.HandlerFor(w.handleItemPurchased))
}

func (w *Worker) handleItemPurchased(ctx context.Context, evt domain.ItemPurchasedEvent) error {
	ctx, _ = logctx.Enrich(ctx, w.log,
		observability.F("event", evt.EventName()),
		observability.F("buyer", evt.Buyer),
	)
	if _, err := w.useCase.Execute(ctx, evt); err != nil {
		return fmt.Errorf("worker: record purchase: %w", err)
	}
	return nil
}
