// Package main запускает HTTP-сервер магазина.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/cartshop/internal/catalog"
	"github.com/mmeshcher/cartshop/internal/config"
	"github.com/mmeshcher/cartshop/internal/events"
	"github.com/mmeshcher/cartshop/internal/handler"
	"github.com/mmeshcher/cartshop/internal/middleware"
	"github.com/mmeshcher/cartshop/internal/repository"
	"github.com/mmeshcher/cartshop/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(ctx, cfg.CatalogSource)
	if err != nil {
		sugar.Fatalw("catalog loading error", "error", err.Error(), "source", cfg.CatalogSource)
	}
	sugar.Infow("catalog loaded",
		"shop", cat.Shop.Name(),
		"items", len(cat.Shop.Items()),
		"discounts", len(cat.Discounts),
	)

	var repo service.Repository
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
	} else {
		sugar.Info("DATABASE_URI is empty, receipts are kept in memory")
		repo = repository.NewMemoryRepository()
	}

	var publisher service.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher, err = events.NewRabbitPublisher(cfg.AMQPURL)
		if err != nil {
			sugar.Fatalw("rabbitmq initialization error", "error", err.Error())
		}
	}

	svc := service.NewService(cat, repo, publisher, logger, cfg.SessionTTL)
	defer svc.Close()

	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, logger, sessions)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск фоновой очистки корзин неактивных сессий
	g.Go(func() error {
		svc.StartSessionSweeper(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting cartshop server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
