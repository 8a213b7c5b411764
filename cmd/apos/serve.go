package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/apos/internal/api"
	"github.com/star/apos/internal/apos"
	"github.com/star/apos/internal/metrics"
	"github.com/star/apos/internal/refdata"
	"github.com/star/apos/internal/series"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve apparent positions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTP.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address, overrides the config value")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: a.cfg.LogLevel(),
	}))
	a.logger = logger

	conv, tables, err := a.converter(parent)
	if err != nil {
		return err
	}
	store := refdata.NewStore()
	store.Set(tables)
	metrics.SetTablesLoaded(tables.LoadedAt)

	eph, err := a.openEphemeris()
	if err != nil {
		return err
	}
	defer eph.Close()

	pool := series.NewPool(a.cfg.Series.Workers, conv, eph, logger,
		apos.WithRecorder(metrics.Recorder{}))

	srv, err := api.NewServer(a.cfg.HTTP.Addr, logger, api.Deps{
		Tables:          store,
		Converter:       conv,
		Provider:        eph,
		Pool:            pool,
		Auth:            a.cfg.Auth,
		RateLimit:       a.cfg.RateLimitConfig(),
		MaxSeriesPoints: a.cfg.Series.MaxPoints,
	})
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", a.cfg.HTTP.Addr,
			"auth_enabled", a.cfg.Auth.Enabled,
			"ephemeris", eph.Path(),
			"series_workers", pool.Workers(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server listen error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
