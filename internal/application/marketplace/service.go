package marketplace

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
)

const (
	marketplaceService = "marketplace"
	spanPrefix         = "UC."

	useCaseRegisterProducer = "marketplace.register_producer"
	useCasePublish          = "marketplace.publish"
	useCaseNewCart          = "marketplace.new_cart"
	useCaseAddToCart        = "marketplace.add_to_cart"
	useCaseRemoveFromCart   = "marketplace.remove_from_cart"
	useCasePlaceOrder       = "marketplace.place_order"

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Service decorates a coordinator with a span, RED metrics and a use_case_done log line per call.
type Service struct {
	market domain.Marketplace
	tel    observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

var (
	_ domain.Marketplace = (*Service)(nil)
	_ domain.StatsReader = (*Service)(nil)
)

func NewService(market domain.Marketplace, tel observability.Observability) *Service {
	tel = observability.Or(tel)
	metrics := tel.Metrics()
	return &Service{
		market:       market,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", marketplaceService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (s *Service) RegisterProducer(ctx context.Context) (id domain.ProducerID, err error) {
	_, err = s.run(ctx, useCaseRegisterProducer, "RegisterProducer", nil, func(ctx context.Context) (bool, error) {
		var rerr error
		id, rerr = s.market.RegisterProducer(ctx)
		if rerr == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("marketplace.producer_id", int(id)))
		}
		return rerr == nil, rerr
	})
	return id, err
}

func (s *Service) Publish(ctx context.Context, producer domain.ProducerID, p domain.Product) (bool, error) {
	attrs := append(productAttrs(p), attribute.Int("marketplace.producer_id", int(producer)))
	return s.run(ctx, useCasePublish, "Publish", attrs, func(ctx context.Context) (bool, error) {
		return s.market.Publish(ctx, producer, p)
	})
}

func (s *Service) NewCart(ctx context.Context) (id domain.CartID, err error) {
	_, err = s.run(ctx, useCaseNewCart, "NewCart", nil, func(ctx context.Context) (bool, error) {
		var rerr error
		id, rerr = s.market.NewCart(ctx)
		if rerr == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("marketplace.cart_id", int(id)))
		}
		return rerr == nil, rerr
	})
	return id, err
}

func (s *Service) AddToCart(ctx context.Context, cart domain.CartID, p domain.Product) (bool, error) {
	attrs := append(productAttrs(p), attribute.Int("marketplace.cart_id", int(cart)))
	return s.run(ctx, useCaseAddToCart, "AddToCart", attrs, func(ctx context.Context) (bool, error) {
		return s.market.AddToCart(ctx, cart, p)
	})
}

func (s *Service) RemoveFromCart(ctx context.Context, cart domain.CartID, p domain.Product) (bool, error) {
	attrs := append(productAttrs(p), attribute.Int("marketplace.cart_id", int(cart)))
	return s.run(ctx, useCaseRemoveFromCart, "RemoveFromCart", attrs, func(ctx context.Context) (bool, error) {
		return s.market.RemoveFromCart(ctx, cart, p)
	})
}

func (s *Service) PlaceOrder(ctx context.Context, cart domain.CartID) (items []domain.Product, err error) {
	attrs := []attribute.KeyValue{
		attribute.Int("marketplace.cart_id", int(cart)),
		attribute.String("marketplace.buyer", domain.BuyerFrom(ctx)),
	}
	_, err = s.run(ctx, useCasePlaceOrder, "PlaceOrder", attrs, func(ctx context.Context) (bool, error) {
		var rerr error
		items, rerr = s.market.PlaceOrder(ctx, cart)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("marketplace.items", len(items)))
		return rerr == nil, rerr
	})
	return items, err
}

// Snapshot reads through to the wrapped coordinator when it exposes stats.
func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if r, ok := s.market.(domain.StatsReader); ok {
		return r.Snapshot(ctx)
	}
	return domain.Snapshot{}, errors.ErrUnsupported
}

func (s *Service) run(
	ctx context.Context,
	useCase, op string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context) (bool, error),
) (accepted bool, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCase))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+op,
		append(attrs, attribute.String("use_case", useCase))...,
	)
	start := time.Now()
	outcome, statusText := outcomeSuccess, "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCase),
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

		switch outcome {
		case outcomeError:
			fields = append(fields, observability.F("error", err.Error()))
			logger.Error("use_case_done", fields...)
		case outcomeRejected:
			// Workers retry rejected calls in a loop.
			logger.Debug("use_case_done", fields...)
		default:
			logger.Info("use_case_done", fields...)
		}
	}()

	ctx = logctx.With(ctx, logger)
	accepted, err = fn(ctx)
	switch {
	case err != nil:
		outcome, statusText = outcomeError, statusFor(err)
	case !accepted:
		outcome, statusText = outcomeRejected, "REJECTED"
	}
	return accepted, err
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownProducer):
		return "UNKNOWN_PRODUCER"
	case errors.Is(err, domain.ErrUnknownCart):
		return "UNKNOWN_CART"
	case errors.Is(err, domain.ErrItemNotInCart):
		return "ITEM_NOT_IN_CART"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "FAILED"
	}
}

func productAttrs(p domain.Product) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("product.category", p.Category),
		attribute.String("product.name", p.Name),
		attribute.Int64("product.price", p.Price),
	}
}
