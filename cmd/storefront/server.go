package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dangminhtuanan/storefront/internal/cart"
	"github.com/dangminhtuanan/storefront/internal/logger"
	"github.com/dangminhtuanan/storefront/internal/order"
	"github.com/dangminhtuanan/storefront/internal/product"
	"github.com/dangminhtuanan/storefront/internal/router"
	storage "github.com/dangminhtuanan/storefront/internal/storage/postgres"
	"github.com/dangminhtuanan/storefront/internal/user"
	"github.com/dangminhtuanan/storefront/internal/vnpay"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewPostgresStorage(cfg.DatabaseConnection)
	if err != nil {
		log.Fatalf("Failed to initialize Postgres storage: %v", err)
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := store.Ping(pingCtx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	userSvc := user.NewService(store, []byte(cfg.JWTSecret), cfg.JWTTTL)
	userHandler := user.NewHandler(userSvc)

	productSvc := product.NewService(store)
	productHandler := product.NewHandler(productSvc)

	cartSvc := cart.NewService(store)
	cartHandler := cart.NewHandler(cartSvc)

	orderSvc := order.NewService(store, productSvc, cartSvc)
	orderHandler := order.NewHandler(orderSvc)

	gateway := &vnpay.Client{
		TmnCode:    cfg.VNPayTmnCode,
		HashSecret: cfg.VNPayHashSecret,
		PayURL:     cfg.VNPayPayURL,
		ReturnURL:  cfg.VNPayReturnURL,
	}
	reconciler := vnpay.NewReconciler(gateway, orderSvc, cartSvc, store)
	vnpayHandler := vnpay.NewHandler(gateway, reconciler, orderSvc)

	r := router.NewRouter(userHandler, productHandler, cartHandler, orderHandler, vnpayHandler,
		[]byte(cfg.JWTSecret), store)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		order.ExpiryLoop(gCtx, orderSvc, cfg.OrderExpiryInterval, cfg.OrderExpiryAge)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Log.Info("server stopped gracefully")
	return nil
}
