package receipt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	domoutbox "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/outbox"
	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

var purchase = domain.NewItemPurchasedEvent(domain.Receipt{
	Buyer:    "cons-1",
	CartID:   3,
	Product:  domain.Product{Category: "Tea", Name: "Linden", Price: 9},
	Producer: 1,
	PlacedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
})

type metricsFixture struct {
	reg  *prometheus.Registry
	sold observability.Counter
	req  observability.Counter
	ext  observability.Counter
}

func newTelemetry() (observability.Observability, *metricsFixture) {
	reg := prometheus.NewRegistry()
	r := prometrics.New("", "", reg)
	f := &metricsFixture{
		reg:  reg,
		sold: r.Counter(string(observability.MItemsSold), "sold", "category"),
		req:  r.Counter(string(observability.MUsecaseRequests), "uc", "use_case", "outcome"),
		ext:  r.Counter(string(observability.MExternalRequests), "ext", "peer", "endpoint", "outcome"),
	}
	tel := infraobs.New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MItemsSold:        f.sold,
		observability.MUsecaseRequests:  f.req,
		observability.MExternalRequests: f.ext,
	}, nil)
	return tel, f
}

func (f *metricsFixture) value(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func Test_RecordPurchase_EmitsReceiptAndCountsSale(t *testing.T) {
	tel, m := newTelemetry()
	var got []domain.Receipt
	uc := NewRecordPurchaseUseCase(domain.SinkFunc(func(_ context.Context, r domain.Receipt) error {
		got = append(got, r)
		return nil
	}), tel)

	res, err := uc.Execute(context.Background(), purchase)

	require.NoError(t, err)
	assert.Equal(t, &RecordResult{Buyer: "cons-1", Category: "Tea"}, res)
	assert.Equal(t, []domain.Receipt{purchase.Receipt()}, got)
	assert.Equal(t, 1.0, m.value(t, "items_sold_total", map[string]string{"category": "Tea"}))
	assert.Equal(t, 1.0, m.value(t, "usecase_requests_total", map[string]string{"use_case": useCaseRecordSale, "outcome": "success"}))
	assert.Equal(t, 1.0, m.value(t, "external_requests_total", map[string]string{"peer": sinkPeer, "endpoint": sinkEndpoint, "outcome": "success"}))
}

func Test_RecordPurchase_SinkFailureIsNotCountedAsSold(t *testing.T) {
	tel, m := newTelemetry()
	uc := NewRecordPurchaseUseCase(domain.SinkFunc(func(context.Context, domain.Receipt) error {
		return errors.New("closed")
	}), tel)

	res, err := uc.Execute(context.Background(), purchase)

	assert.Nil(t, res)
	assert.ErrorContains(t, err, "closed")
	assert.Zero(t, testutil.CollectAndCount(m.reg, "items_sold_total"))
	assert.Equal(t, 1.0, m.value(t, "usecase_requests_total", map[string]string{"use_case": useCaseRecordSale, "outcome": "error"}))
}

func Test_RecordPurchase_CancelledContext(t *testing.T) {
	called := false
	uc := NewRecordPurchaseUseCase(domain.SinkFunc(func(context.Context, domain.Receipt) error {
		called = true
		return nil
	}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.Execute(ctx, purchase)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func Test_Worker_RecordsEventsFromTheBus(t *testing.T) {
	tel, m := newTelemetry()
	received := make(chan domain.Receipt, 4)
	uc := NewRecordPurchaseUseCase(domain.SinkFunc(func(_ context.Context, r domain.Receipt) error {
		received <- r
		return nil
	}), tel)

	bus := outbox.NewBus(nil)
	NewWorker(bus, uc, tel).Start()
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), purchase))
	require.NoError(t, bus.Publish(context.Background(), purchase))
	require.NoError(t, bus.Stop(context.Background()))

	assert.Len(t, received, 2)
	assert.Equal(t, 2.0, m.value(t, "items_sold_total", map[string]string{"category": "Tea"}))
}

func Test_Worker_WrapsUseCaseErrors(t *testing.T) {
	var handler domoutbox.Handler
	sub := subscriberFunc(func(name string, h domoutbox.Handler) {
		assert.Equal(t, "marketplace.item_purchased", name)
		handler = h
	})
	boom := errors.New("boom")
	uc := failingUseCase{err: boom}

	NewWorker(sub, uc, nil).Start()
	require.NotNil(t, handler)

	assert.ErrorIs(t, handler(context.Background(), purchase), boom)
}

type subscriberFunc func(name string, h domoutbox.Handler)

func (f subscriberFunc) Subscribe(name string, h domoutbox.Handler) { f(name, h) }

type failingUseCase struct{ err error }

func (u failingUseCase) Execute(context.Context, domain.ItemPurchasedEvent) (*RecordResult, error) {
	return nil, u.err
}
