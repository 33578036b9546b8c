// Package receipt records checkouts delivered over the event bus.
package receipt

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

const (
	receiptService      = "receipt-service"
	useCaseRecordSale   = "receipt.record"
	spanPrefix          = "UC."
	sinkPeer            = "receipt_sink"
	sinkEndpoint        = "emit"
	defaultEmitDeadline = 300 * time.Millisecond
)

// RecordResult describes a recorded sale.
type RecordResult struct {
	Buyer    string
	Category string
}

// RecordPurchaseUseCase writes a purchased item to the receipt sink and counts it as sold.
type RecordPurchaseUseCase struct {
	sink   domain.ReceiptSink
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	soldCounter  observability.Counter   // items_sold_total{category}
}

func NewRecordPurchaseUseCase(sink domain.ReceiptSink, tel observability.Observability) *RecordPurchaseUseCase {
	if sink == nil {
		sink = domain.DiscardSink
	}
	tel = observability.Or(tel)
	metrics := tel.Metrics()
	return &RecordPurchaseUseCase{
		sink:         sink,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", receiptService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		soldCounter:  metrics.Counter(observability.MItemsSold),
	}
}

// Execute records one ItemPurchasedEvent.
func (uc *RecordPurchaseUseCase) Execute(ctx context.Context, e domain.ItemPurchasedEvent) (_ *RecordResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseRecordSale),
		observability.F("event_id", e.EventID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"RecordPurchase",
		attribute.String("use_case", useCaseRecordSale),
		attribute.String("marketplace.buyer", e.Buyer),
		attribute.String("product.category", e.Product.Category),
		attribute.Int("marketplace.cart_id", int(e.CartID)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseRecordSale),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseRecordSale),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Debug("use_case_done", fields...)
	}()

	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	emitCtx, cancel := context.WithTimeout(logctx.With(ctx, logger), defaultEmitDeadline)
	emitStart := time.Now()
	emitErr := uc.sink.Emit(emitCtx, e.Receipt())
	cancel()

	emitOutcome := "success"
	if emitErr != nil {
		emitOutcome = "error"
	}
	uc.extCounter.Add(1,
		observability.L("peer", sinkPeer),
		observability.L("endpoint", sinkEndpoint),
		observability.L("outcome", emitOutcome),
	)
	uc.extHistogram.Observe(time.Since(emitStart).Seconds(),
		observability.L("peer", sinkPeer),
		observability.L("endpoint", sinkEndpoint),
	)
	if emitErr != nil {
		outcome, statusText = "error", "SINK_EMIT_FAILED"
		return nil, fmt.Errorf("receipt: emit: %w", emitErr)
	}

	uc.soldCounter.Add(1, observability.L("category", e.Product.Category))
	return &RecordResult{Buyer: e.Buyer, Category: e.Product.Category}, nil
}
