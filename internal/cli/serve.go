package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account_ledger/internal/api"
	"account_ledger/internal/config"
	"account_ledger/internal/ledger"
	"account_ledger/internal/repository/memory"
	"account_ledger/pkg/crypto"
	"account_ledger/pkg/metrics"

	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the REST API and the Prometheus metrics endpoint.

Accounts live in memory for the lifetime of the process. The server stops
gracefully on SIGINT or SIGTERM.`,
		Example: `  LEDGER_SIGNING_KEY=secret ledger serve
  ledger serve --config ledger.yaml --http-addr :8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, a.logger)
		},
	}

	cmd.Flags().String("http-addr", "", "HTTP listen address")
	cmd.Flags().String("metrics-addr", "", "Metrics listen address")
	cmd.Flags().String("signing-key", "", "Statement signing key")

	return cmd
}

// serve runs until ctx is done or the HTTP server fails.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(cfg.SigningKey, logger)
	svc := ledger.NewService(memory.NewAccountRepository(), logger)
	handler := api.NewAPIHandler(svc, metricsCollector, signer, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(handler, cfg.RequestTimeout),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsCollector.StartMetricsServer(cfg.MetricsAddr)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownErr := waitForShutdown(logger, cfg.ShutdownTimeout, httpServer, metricsCollector)
	for range serveErr {
	}
	return errors.Join(runErr, shutdownErr)
}

func waitForShutdown(
	logger *slog.Logger,
	timeout time.Duration,
	httpServer *http.Server,
	metricsCollector *metrics.MetricsCollector,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	logger.Info("Ledger shutdown complete")
	return errors.Join(errs...)
}
