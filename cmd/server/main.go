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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/noahxzhu/lighthouse/internal/config"
	"github.com/noahxzhu/lighthouse/internal/logging"
	"github.com/noahxzhu/lighthouse/internal/mailer"
	"github.com/noahxzhu/lighthouse/internal/storage"
	"github.com/noahxzhu/lighthouse/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load Config
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Server.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Init Storage
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()
	if cfg.Storage.Backend == storage.BackendMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
	}

	mail := mailer.NewClient(cfg.Mail.APIURL, mailer.DKIM{
		Domain:     cfg.Mail.DKIM.Domain,
		Selector:   cfg.Mail.DKIM.Selector,
		PrivateKey: cfg.Mail.DKIM.PrivateKey,
	}, cfg.Mail.Timeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Init Web Server
	srv, err := web.NewServer(store, mail, web.Options{
		AuthToken: cfg.Auth.Token,
		DataKey:   cfg.Storage.Key,
		From:      mailer.Address{Email: cfg.Mail.FromAddress(), Name: cfg.Mail.FromName},
		Subject:   cfg.Mail.Subject,
		Debug:     cfg.Server.Debug,
	}, logger, reg)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	if cfg.Auth.Token == "" {
		logger.Warn("RELAY_TOKEN not set; API is unauthenticated")
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start HTTP Server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("storage", cfg.Storage.Backend))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
