package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shophub/storefront/internal/es"
	"github.com/shophub/storefront/internal/httpserver"
	"github.com/shophub/storefront/internal/models"
	"github.com/shophub/storefront/internal/mykafka"
	"github.com/shophub/storefront/internal/repo"
	"github.com/shophub/storefront/internal/service"
	"github.com/shophub/storefront/pkg/config"
	pkgdb "github.com/shophub/storefront/pkg/db"
	"github.com/shophub/storefront/pkg/logging"
	"github.com/shophub/storefront/pkg/metrics"
	"github.com/shophub/storefront/pkg/middleware/csrf"
	loggingmw "github.com/shophub/storefront/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &repo.GormRepo{DB: db, LockTimeout: cfg.CheckoutLockTimeout}
	checkout := &service.CheckoutService{
		Repo:     r,
		Metrics:  metrics.NewCheckoutMetrics(reg),
		MaxLines: cfg.MaxCartLines,
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		checkout.Events = producer
		checkout.EventsTopic = cfg.OrderEventsTopic
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(esCtx, cfg, logger)
		esCancel()
		if err != nil {
			// Search is a secondary view of stock; checkout runs without it.
			logger.Error("elasticsearch unavailable, stock sync disabled", "err", err)
		} else {
			checkout.Stock = es.NewStockIndexer(client, cfg.ESProductIndex)
		}
	}

	handler := &httpserver.OrderHTTP{
		CheckoutSvc: checkout,
		Orders:      &service.OrderService{Repo: r},
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:    cfg.CSRFCookieSecure,
		SkipPaths: []string{"/health/live", "/health/ready", "/metrics"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: handler,
		JWTSecret:    cfg.JWTAccessSecret,
		DB:           db,
		Gatherer:     reg,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	if err := checkout.Wait(shutdownCtx); err != nil {
		logger.Error("post-commit hooks still running", "err", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "err", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db close", "err", err)
	}

	logger.Info("storefront stopped")
}
