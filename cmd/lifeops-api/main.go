package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halver/lifeops/internal/api"
	"github.com/halver/lifeops/internal/config"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/db"
	"github.com/halver/lifeops/internal/logging"
	"github.com/halver/lifeops/internal/metrics"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-token" {
		createToken(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("lifeops-api"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.RegisterPgxPoolMetrics(pool)

	srv := api.NewServer(logger, pool, cfg)
	defer srv.Shutdown()

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func createToken(args []string) {
	fs := flag.NewFlagSet("create-token", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner user ID (required)")
	name := fs.String("name", "", "Name for the token (required)")
	fs.Parse(args)

	if *owner == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "error: --owner and --name are required")
		fmt.Fprintln(os.Stderr, "usage: lifeops-api create-token --owner <user-id> --name <name>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewAPITokenService(pool)
	token, raw, err := svc.Create(ctx, *owner, *name, nil, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API token created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", token.Name)
	fmt.Printf("  ID:     %s\n", token.ID)
	fmt.Printf("  Token:  %s\n\n", raw)
	fmt.Printf("Save this token - it will not be shown again.\n")
}
