package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/halver/lifeops/internal/config"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/db"
	"github.com/halver/lifeops/internal/demo"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var ownerID string
	root := &cobra.Command{
		Use:   "lifeops",
		Short: "lifeops - cronjob automation control plane CLI",
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}
	root.PersistentFlags().StringVar(&ownerID, "owner", os.Getenv("LIFEOPS_OWNER"), "owner user ID")

	root.AddCommand(cronjobCmd(&ownerID))
	root.AddCommand(seedCmd())
	return root
}

// withPool connects to the configured database and runs fn.
func withPool(fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate("lifeops"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool)
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return errors.New("--owner (or LIFEOPS_OWNER) is required")
	}
	return nil
}

func cronjobCmd(ownerID *string) *cobra.Command {
	root := &cobra.Command{Use: "cronjob", Short: "Manage cronjobs"}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cronjobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(*ownerID); err != nil {
				return err
			}
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				services := core.NewServices(pool)
				cronJobs, _, err := services.CronJob.List(ctx, *ownerID, 100, "")
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSCHEDULE\tTZ\tSTATUS\tLEVEL\tUPDATED")
				for _, cj := range cronJobs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						cj.ID, cj.Name, cj.Schedule, cj.Timezone, cj.Status,
						cj.AutomationLevel, humanize.Time(cj.UpdatedAt))
				}
				return w.Flush()
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "run <cronjob-id>",
		Short: "Trigger a cronjob immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(*ownerID); err != nil {
				return err
			}
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				services := core.NewServices(pool)
				run, err := services.Run.Trigger(ctx, *ownerID, args[0])
				if err != nil {
					if errors.Is(err, core.ErrDuplicateRun) {
						return fmt.Errorf("cronjob %s already has a run in flight", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s enqueued (%s)\n", run.ID, run.Status)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "runs <cronjob-id>",
		Short: "Show recent runs of a cronjob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireOwner(*ownerID); err != nil {
				return err
			}
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				services := core.NewServices(pool)
				runs, err := services.Run.ListByCronJob(ctx, *ownerID, args[0], 0)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tERROR")
				for _, run := range runs {
					errMsg := ""
					if run.Error != nil {
						errMsg = *run.Error
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						run.ID, run.Status, humanize.Time(run.StartedAt), errMsg)
				}
				return w.Flush()
			})
		},
	})

	return root
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled demo records into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := demo.Seed(ctx, pool); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "demo data seeded")
				return nil
			})
		},
	}
}
