package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/consumer"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/producer"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
	domain "github.com/Zhima-Mochi/minishop-marketplace/internal/domain/marketplace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
)

// buildWorkers turns the validated scenario into producer and consumer workers.
func buildWorkers(
	cfg *config.Config,
	market domain.Marketplace,
	tel observability.Observability,
) ([]*producer.Worker, []*consumer.Worker) {
	producers := make([]*producer.Worker, 0, len(cfg.Producers))
	for _, pc := range cfg.Producers {
		offers := make([]producer.Offer, 0, len(pc.Offers))
		for _, o := range pc.Offers {
			offers = append(offers, producer.Offer{
				Product:  cfg.Catalog[o.Product],
				Quantity: o.Quantity,
				Pace:     o.Pace,
			})
		}
		producers = append(producers, producer.New(pc.Name, offers, market,
			cfg.Marketplace.RepublishWait, tel, producer.WithRounds(pc.Rounds)))
	}

	consumers := make([]*consumer.Worker, 0, len(cfg.Consumers))
	for _, cc := range cfg.Consumers {
		carts := make([][]consumer.Step, 0, len(cc.Carts))
		for _, cart := range cc.Carts {
			steps := make([]consumer.Step, 0, len(cart))
			for _, s := range cart {
				steps = append(steps, consumer.Step{
					Op:       consumer.Op(s.Type),
					Product:  cfg.Catalog[s.Product],
					Quantity: s.Quantity,
				})
			}
			carts = append(carts, steps)
		}
		consumers = append(consumers, consumer.New(cc.Name, carts, market, cfg.Marketplace.RetryWait, tel))
	}

	return producers, consumers
}

func counters(r prometrics.Registry) map[observability.MetricKey]observability.Counter {
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Total number of calls to external dependencies.", "peer", "endpoint", "outcome"),
		observability.MWorkerRetries: r.Counter(string(observability.MWorkerRetries),
			"Rejected marketplace calls retried by workers.", "worker", "op"),
		observability.MItemsSold: r.Counter(string(observability.MItemsSold),
			"Items bought through checkout.", "category"),
	}
}

func histograms(r prometrics.Registry) map[observability.MetricKey]observability.Histogram {
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", prometheus.DefBuckets, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Duration of calls to external dependencies in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
	}
}

// registerMarketplaceGauges exposes the coordinator read model as scrape-time gauges.
func registerMarketplaceGauges(r prometrics.Registry, stats domain.StatsReader) {
	snapshot := func() domain.Snapshot {
		snap, _ := stats.Snapshot(context.Background())
		return snap
	}
	r.GaugeFunc("marketplace_available_items", "Items published and not yet claimed.", func() float64 {
		return float64(snapshot().TotalAvailable())
	})
	r.GaugeFunc("marketplace_queued_items", "Sum of producer queue occupancy.", func() float64 {
		total := 0
		for _, p := range snapshot().Producers {
			total += p.Queued
		}
		return float64(total)
	})
	r.GaugeFunc("marketplace_open_carts", "Carts created and not yet placed.", func() float64 {
		return float64(snapshot().OpenCarts)
	})
	r.GaugeFunc("marketplace_placed_orders", "Carts checked out.", func() float64 {
		return float64(snapshot().PlacedOrders)
	})
}
