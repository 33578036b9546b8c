package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

type countingCounter struct{ total float64 }

func (c *countingCounter) Add(d float64, _ ...observability.Label) { c.total += d }
func (c *countingCounter) Bind(...observability.Label) observability.BoundCounter {
	return observability.NopCounter().Bind()
}

func Test_New_ResolvesRegisteredAndUnknownKeys(t *testing.T) {
	sold := &countingCounter{}
	tel := New(nil, nil, map[observability.MetricKey]observability.Counter{
		observability.MItemsSold:     sold,
		observability.MHTTPRequests: nil,
	}, nil)

	tel.Metrics().Counter(observability.MItemsSold).Add(2)
	assert.Equal(t, 2.0, sold.total)

	assert.NotPanics(t, func() {
		tel.Metrics().Counter(observability.MHTTPRequests).Add(1)
		tel.Metrics().Histogram(observability.MUsecaseDuration).Observe(1)
		tel.Logger().Info("ignored")
	})
	assert.NotNil(t, tel.Tracer())
}
