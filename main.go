package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appMarketplace "github.com/Zhima-Mochi/minishop-marketplace/internal/application/marketplace"
	appReceipt "github.com/Zhima-Mochi/minishop-marketplace/internal/application/receipt"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/config"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/outbox"
	infraReceipt "github.com/Zhima-Mochi/minishop-marketplace/internal/infrastructure/receipt"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-marketplace/internal/presentation/worker"
)

func main() {
	cfg, err := config.LoadAndValidate(getenvDefault("CONFIG_PATH", "marketplace.yaml"))
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	serviceName := getenvDefault("SERVICE_NAME", cfg.Service.Name)
	env := getenvDefault("ENV", cfg.Service.Env)
	baseLogger := zaplogger.MustNew(serviceName, env, cfg.Log.Level)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger.Zap())

	systemLogger := baseLogger.WithTrace(zaplogger.SystemTraceID, zaplogger.SystemSpanID)

	if cfg.Tracing.Stdout {
		tp, err := oteltrace.InstallStdout(serviceName, nil)
		if err != nil {
			systemLogger.Error("tracing_init_failed", observability.F("error", err))
			os.Exit(1)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	registry := prometrics.New("", "", prometheus.DefaultRegisterer)
	tel := infraobs.New(oteltrace.New(serviceName), baseLogger, counters(registry), histograms(registry))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Checkout receipts travel through the bus to the receipt worker, which logs item_bought.
	bus := outbox.NewBus(baseLogger)
	recordPurchase := appReceipt.NewRecordPurchaseUseCase(infraReceipt.NewLogSink(baseLogger), tel)
	appReceipt.NewWorker(bus, recordPurchase, tel).Start()
	bus.Start(ctx)

	core, err := memory.NewMarketplace(cfg.Marketplace.QueueCapacity, infraReceipt.NewOutboxSink(bus))
	if err != nil {
		systemLogger.Error("marketplace_init_failed", observability.F("error", err))
		os.Exit(1)
	}
	market := appMarketplace.NewService(core, tel)
	registerMarketplaceGauges(registry, core)

	handler := httppresentation.NewHandler(market, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: mux,
	}

	go func() {
		systemLogger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error", observability.F("error", err))
		}
	}()

	producers, consumers := buildWorkers(cfg, market, tel)
	systemLogger.Info("scenario_start",
		observability.F("producers", len(producers)),
		observability.F("consumers", len(consumers)),
		observability.F("queue_capacity", cfg.Marketplace.QueueCapacity),
	)

	// Producers run until every consumer is done; consumers decide when the scenario ends.
	producerCtx, stopProducers := context.WithCancel(ctx)
	defer stopProducers()
	producerGroup, producerCtx := errgroup.WithContext(producerCtx)
	for _, p := range producers {
		p := p
		wctx := workerpresentation.WithWorkerContext(producerCtx, baseLogger, tel, map[string]string{
			"worker": p.Name(),
			"role":   "producer",
		})
		producerGroup.Go(func() error { return p.Run(wctx) })
	}

	consumerGroup, consumerCtx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		c := c
		wctx := workerpresentation.WithWorkerContext(consumerCtx, baseLogger, tel, map[string]string{
			"worker": c.Name(),
			"role":   "consumer",
		})
		consumerGroup.Go(func() error { return c.Run(wctx) })
	}

	exitCode := 0
	if err := consumerGroup.Wait(); err != nil {
		systemLogger.Error("consumers_failed", observability.F("error", err))
		exitCode = 1
	}
	stopProducers()
	if err := producerGroup.Wait(); err != nil {
		systemLogger.Error("producers_failed", observability.F("error", err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Error("event_bus_stop_error", observability.F("error", err))
	}

	if snap, err := core.Snapshot(shutdownCtx); err == nil {
		systemLogger.Info("scenario_done",
			observability.F("placed_orders", snap.PlacedOrders),
			observability.F("available", snap.TotalAvailable()),
		)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err))
	} else {
		systemLogger.Info("http_server_stopped")
	}

	if exitCode != 0 {
		_ = baseLogger.Sync()
		os.Exit(exitCode)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
