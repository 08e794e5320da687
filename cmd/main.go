package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"template-service/internal/server"
	"template-service/internal/service"
	"template-service/pkg/config"
	"template-service/pkg/database"
	"template-service/pkg/logger"
	"template-service/pkg/notify"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	seed := flag.Bool("seed", false, "create the default tenants and exit")
	flag.Parse()

	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()
	log.Info("Starting template service...", cfg.LogConfig()...)

	db, err := database.Open(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *seed {
		ctx := logger.WithContext(ctx, log)
		if err := service.NewTenantService(db).Seed(ctx, service.DefaultTenants...); err != nil {
			log.Fatal("Failed to seed tenants", zap.Error(err))
		}
		log.Info("Seeding completed")
		return
	}

	e := server.New(server.Deps{
		Config:   cfg,
		DB:       db,
		Logger:   log,
		Notifier: notify.New(cfg.SMTP, log),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server stopped")
}
