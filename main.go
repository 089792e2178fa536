package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"quote-engine/internal/catalog"
	"quote-engine/internal/config"
	"quote-engine/internal/engine"
	"quote-engine/internal/handler"
	"quote-engine/internal/logger"
	"quote-engine/internal/sentryutil"
)

func main() {
	cfg, err := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Fatal("config load failed", "error", err.Error())
	}

	sentryutil.Init(cfg)
	defer sentryutil.Flush()

	var (
		source catalog.Source
		plans  handler.PlanLister
	)
	if cfg.CatalogBaseURL != "" {
		client := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, cfg.CatalogRPS, cfg.CatalogBurst)
		cache := catalog.NewCache(client)
		source, plans = cache, client

		if len(cfg.CatalogWarmPlans) > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			loaded, err := cache.Warm(ctx, cfg.CatalogWarmPlans, catalog.Filters{})
			cancel()
			if err != nil {
				logger.Warn("catalog warm-up incomplete", "loaded", loaded, "error", err.Error())
			} else {
				logger.Info("catalog warmed", "plans", loaded)
			}
		}
	} else {
		logger.Warn("CATALOG_BASE_URL empty, plans cannot be opened")
		source = catalog.NewStatic()
	}

	h := handler.New(handler.Options{
		Engine:         engine.New(source, time.Now),
		Plans:          plans,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	srv := &fasthttp.Server{
		Handler:            h.Handle,
		Name:               "quote-engine",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		MaxRequestBodySize: 4 * 1024 * 1024,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("quote engine starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe(":" + cfg.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			sentryutil.CaptureError(err, map[string]string{"phase": "serve"})
			sentryutil.Flush()
			logger.Fatal("server failed", "error", err.Error())
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(ctx); err != nil {
			logger.Error("shutdown failed", "error", err.Error())
		}
	}
}
