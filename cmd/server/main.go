package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/egannguyen/go-retail-backoffice/internal/config"
	deliveryhttp "github.com/egannguyen/go-retail-backoffice/internal/delivery/http"
	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/messaging/kafka"
	"github.com/egannguyen/go-retail-backoffice/internal/notifier"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
	"github.com/egannguyen/go-retail-backoffice/internal/repository/memory"
	"github.com/egannguyen/go-retail-backoffice/internal/repository/postgres"
	"github.com/egannguyen/go-retail-backoffice/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Persistence ---
	var (
		store       repository.Store
		productRepo repository.ProductRepository
		staffRepo   repository.StaffRepository
		saleRepo    repository.SaleRepository
		rollupRepo  repository.RollupRepository
	)
	switch cfg.Store {
	case "memory":
		mem := memory.New(cfg.LockWait)
		store, productRepo, staffRepo, saleRepo, rollupRepo = mem, mem, mem.StaffRepo(), mem, mem
		slog.Info("Using in-memory store")
	default:
		db, err := postgres.InitDB(cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to init database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		store = postgres.NewStore(db, cfg.LockWait)
		productRepo = postgres.NewProductRepository(db)
		staffRepo = postgres.NewStaffRepository(db)
		saleRepo = postgres.NewSaleRepository(db)
		rollupRepo = postgres.NewRollupRepository(db)
	}

	if cfg.SeedDemoData {
		if err := seed(ctx, productRepo, staffRepo); err != nil {
			slog.Error("Failed to seed demo data", "err", err)
			os.Exit(1)
		}
	}

	// --- Messaging ---
	broker := kafka.NewBroker(cfg.KafkaBrokers)
	defer broker.Close()

	saleNotifier := notifier.New(broker, notifier.Config{
		Topic:          cfg.SaleTopic,
		QueueSize:      cfg.NotifyQueueSize,
		MaxAttempts:    cfg.NotifyMaxAttempts,
		InitialBackoff: cfg.NotifyInitialBackoff,
		PublishTimeout: cfg.NotifyTimeout,
	})
	saleNotifier.Start(ctx)
	defer saleNotifier.Stop()

	// --- Services ---
	orderSvc := service.NewOrderService(store, saleRepo, productRepo, saleNotifier)
	analyticsSvc := service.NewAnalyticsService(saleRepo)
	forecastSvc := service.NewForecastService(saleRepo)
	projector := service.NewRollupProjector(rollupRepo)

	// Consumer: sales.events → rollup projection (at-least-once).
	go broker.Consume(ctx, cfg.SaleTopic, cfg.ConsumerGroup, projector.HandleMessage)

	// --- HTTP API ---
	handler := deliveryhttp.NewHandler(orderSvc, analyticsSvc, forecastSvc)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: deliveryhttp.EnableCORS(mux),
	}

	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "err", err)
	}
}

func seed(ctx context.Context, products repository.ProductRepository, staff repository.StaffRepository) error {
	err := products.Seed(ctx, []entity.Product{
		{ID: "espresso-beans-1kg", Name: "Espresso Beans 1kg", Price: 18900, Stock: 40},
		{ID: "pour-over-kettle", Name: "Pour Over Kettle", Price: 45500, Stock: 15},
		{ID: "ceramic-mug", Name: "Ceramic Mug", Price: 9900, Stock: 120},
		{ID: "cold-brew-bottle", Name: "Cold Brew Bottle", Price: 15900, Stock: 60},
	})
	if err != nil {
		return err
	}
	return staff.Seed(ctx, []entity.StaffRef{
		{ID: "staff-anna", Username: "anna", Role: "staff"},
		{ID: "staff-minh", Username: "minh", Role: "staff"},
		{ID: "staff-admin", Username: "admin", Role: "admin"},
	})
}
