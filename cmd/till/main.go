// Command till is the cashier's terminal front-end. It talks to the backend
// over HTTP and keeps the cart, session and shift state locally.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tillpos-backend/internal/cart"
	"tillpos-backend/internal/catalog"
	"tillpos-backend/internal/checkout"
	"tillpos-backend/internal/client"
	"tillpos-backend/internal/config"
	"tillpos-backend/internal/ledger"
	"tillpos-backend/internal/session"
)

func main() {
	cfg, err := config.LoadTill()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "backend base URL")
	flag.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session token file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := client.New(cfg.BackendURL, cfg.RequestTimeout)
	shifts := ledger.New(backend, cfg.StoreName, cfg.StoreAddress)
	products := catalog.New(backend)
	c := cart.New()

	a := &app{
		backend:  backend,
		session:  session.NewManager(backend, session.FileStore{Path: cfg.SessionFile}, shifts, logger),
		ledger:   shifts,
		catalog:  products,
		cart:     c,
		checkout: &checkout.Checkout{Cart: c, Backend: backend, Catalog: products, Store: checkout.Store{Name: cfg.StoreName, Address: cfg.StoreAddress}},
		out:      os.Stdout,
		logger:   logger,
	}

	if err := a.session.Init(ctx); err != nil {
		a.printErr(err)
	}
	if err := a.run(ctx, os.Stdin); err != nil {
		logger.Error("till stopped", "err", err)
		os.Exit(1)
	}
}
