package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/halver/lifeops/internal/config"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/db"
	"github.com/halver/lifeops/internal/logging"
	"github.com/halver/lifeops/internal/metrics"
	"github.com/halver/lifeops/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("lifeops-scheduler"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.RegisterPgxPoolMetrics(pool)

	planner := scheduler.NewPlanner(pool, core.NewServices(pool), logger, cfg.SchedulerInterval)
	metricsServer := metrics.NewServer(":9091")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return planner.Run(gctx)
	})
	g.Go(func() error {
		logger.Info().Str("addr", metricsServer.Addr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return metricsServer.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("scheduler exited")
	}
	logger.Info().Msg("scheduler stopped")
}
