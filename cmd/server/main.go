package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"tillpos-backend/internal/config"
	"tillpos-backend/internal/db"
	"tillpos-backend/internal/handler"
	"tillpos-backend/internal/metrics"
	"tillpos-backend/internal/receipt"
	"tillpos-backend/internal/repository"
	"tillpos-backend/internal/server"
	"tillpos-backend/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "err", err)
		os.Exit(1)
	}

	tmpl, err := receipt.Load(cfg.ReceiptTemplate)
	if err != nil {
		logger.Error("failed to load receipt template", "err", err)
		os.Exit(1)
	}

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	productRepo := repository.ProductRepository{DB: pg}
	registerRepo := repository.RegisterRepository{DB: pg}
	txRepo := repository.TransactionRepository{DB: pg}
	shiftRepo := repository.ShiftRepository{DB: pg}
	reportRepo := repository.ReportRepository{DB: pg}

	// services
	m := metrics.New(prometheus.DefaultRegisterer)
	docs := service.Documents{
		Printer:      receipt.NewPrinter(cfg.PrinterDevice, logger),
		Template:     tmpl,
		StoreName:    cfg.StoreName,
		StoreAddress: cfg.StoreAddress,
	}
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	txSvc := service.TransactionService{Transactions: txRepo, Documents: docs, Metrics: m, Logger: logger}
	shiftSvc := service.ShiftService{Shifts: shiftRepo, Registers: registerRepo, Reports: reportRepo, Documents: docs, Metrics: m, Logger: logger}

	if cfg.SeedDefaults {
		if err := seed(ctx, userRepo, productRepo, registerRepo, authSvc); err != nil {
			logger.Error("failed to seed defaults", "err", err)
			os.Exit(1)
		}
	}

	router := server.NewRouter(cfg, logger, m, prometheus.DefaultGatherer, server.Handlers{
		Health:        handler.HealthHandler{DB: pg},
		Auth:          handler.AuthHandler{Service: authSvc},
		Users:         handler.UserHandler{Service: authSvc},
		Products:      handler.ProductHandler{Repo: productRepo},
		ProductsAdmin: handler.ProductAdminHandler{Repo: productRepo},
		Transactions:  handler.TransactionHandler{Service: txSvc},
		Shifts:        handler.ShiftHandler{Service: shiftSvc},
		Reports:       handler.ReportHandler{Service: shiftSvc},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, users repository.UserRepository, products repository.ProductRepository, registers repository.RegisterRepository, auth service.AuthService) error {
	if err := users.SeedDefaults(ctx, auth.HashPassword); err != nil {
		return err
	}
	if err := registers.SeedDefaults(ctx); err != nil {
		return err
	}
	return products.SeedDefaults(ctx)
}
