package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ideamans/go-sheetdb/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.svc.Ensure(ctx); err != nil {
				return err
			}
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	srv := api.New(a.svc, api.Options{CORSOrigins: a.cfg.CORSOrigins, Logger: a.log})
	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("port", a.cfg.Port), zap.String("backend", a.cfg.Backend))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
