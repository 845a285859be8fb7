// Package main wires together the page analyzer service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/avkazmin/page-analyzer/internal/checker"
	"github.com/avkazmin/page-analyzer/internal/config"
	"github.com/avkazmin/page-analyzer/internal/logging"
	"github.com/avkazmin/page-analyzer/internal/metrics"
	"github.com/avkazmin/page-analyzer/internal/service"
	"github.com/avkazmin/page-analyzer/internal/storage/postgres"
	"github.com/avkazmin/page-analyzer/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	urlStore, err := postgres.NewURLStore(ctx, postgres.Config{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("connect store failed", zap.Error(err))
	}
	defer urlStore.Close()

	if err := urlStore.Migrate(ctx); err != nil {
		logger.Fatal("apply schema failed", zap.Error(err))
	}

	pageChecker := checker.New(checker.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.CheckTimeout(),
	})

	svc := service.New(urlStore, pageChecker, logger.Named("service"))

	server, err := web.NewServer(svc, urlStore, web.Config{SecretKey: cfg.SecretKey}, logger.Named("web"))
	if err != nil {
		logger.Fatal("build server failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
