package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/stash"
	"github.com/aretw0/stash/internal/presentation/tui"
	httpAdapter "github.com/aretw0/stash/pkg/adapters/http"
	"github.com/aretw0/stash/pkg/observability"
	"github.com/aretw0/stash/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session host",
	Long:  `Starts the HTTP host: every request gets its session bound from a cookie, and the JSON API exposes the default namespace and named namespaces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, closeBackend, err := stash.OpenBackend(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeBackend()

		metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		backend = middleware.Chain(backend, metrics.Middleware())

		cookieSecure, _ := cmd.Flags().GetBool("cookie-secure")
		handler, err := httpAdapter.NewHandler(backend,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCookie(httpAdapter.CookieOptions{
				Name:   cfg.Cookie.Name,
				Secure: cfg.Cookie.Secure || cookieSecure,
			}),
			httpAdapter.WithMetrics(metrics, prometheus.DefaultGatherer),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout, stash.Version)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Stash Server", "addr", srv.Addr, "backend", cfg.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Shutdown signal received")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			logger.Info("Stash Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("cookie-secure", false, "Mark the session cookie as Secure")
}
