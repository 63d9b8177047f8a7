package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"bmipredict/config"
	"bmipredict/db"
	qhttp "bmipredict/http"
	"bmipredict/inference"
	"bmipredict/logging"
	"bmipredict/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) (err error) {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logging
	logger, level := logging.New(cfg.LogOptions())
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
		if lvl := logging.ParseLevel(next.Log.Level); lvl != level.Level() {
			level.SetLevel(lvl)
			logger.Info("log level changed", zap.Stringer("level", lvl))
		}
	}); err != nil {
		logger.Warn("config changes will not be picked up", zap.Error(err))
	}

	// 3. Load the classifier once, before accepting traffic
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	loader := inference.NewLoader(cfg.Inference(), inference.WithLogger(logger.Named("inference")))
	if _, err := loader.Load(); err != nil {
		logger.Error("classifier unavailable", zap.Error(err))
		return err
	}
	metrics.SetReady(true)

	// 4. Prediction journal
	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open prediction journal: %w", err)
		}
		defer func() { err = multierr.Append(err, store.Close()) }()
		logger.Info("prediction journal ready", zap.String("path", cfg.Database.Path))
	}

	// 5. Live feed
	hub := monitoring.NewHub(logger.Named("ws"))
	go hub.Run()
	defer hub.Stop()

	// 6. Start HTTP server
	handler := qhttp.NewHandler(qhttp.Deps{
		Models:   loader,
		Store:    store,
		Hub:      hub,
		Metrics:  metrics,
		Gatherer: registry,
		Logger:   logger.Named("http"),
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, handler)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	// 7. Handle graceful shutdown
	select {
	case err = <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return multierr.Combine(server.Stop(shutdownCtx), <-serveErr)
}
