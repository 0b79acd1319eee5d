package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/riftgate/llm-gateway/internal/app"
	"github.com/riftgate/llm-gateway/internal/config"
	"github.com/riftgate/llm-gateway/internal/httpapi"
	"github.com/riftgate/llm-gateway/internal/observability"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

// run wires the gateway and blocks until a termination signal triggers a
// graceful shutdown. Grounded on the signal-handling/Shutdown(ctx) pattern
// of ztfcharlie-api-proxy-nginx's central-hub/cmd/server/main.go, since the
// teacher's own cmd/api-gateway/main.go never implemented a real wiring
// entrypoint (// TODO: wire pipeline stages).
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := observability.NewZapLogger(cfg.Observability.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deps, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}

	handler := httpapi.SetupRoutes(deps)
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("gateway listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	// Stop the health prober and config watchers first, per spec §5's
	// ordering, before draining in-flight requests.
	deps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		server.Close()
		return err
	}

	logger.Info("gateway exited cleanly")
	return nil
}
