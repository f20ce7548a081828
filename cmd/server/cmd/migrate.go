package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/Togather-Foundation/meetups/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
		steps          int
		skipRiver      bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Apply or roll back the PostgreSQL schema.

"migrate up" applies every pending schema migration and installs the River
job tables. "migrate down" rolls back the given number of schema steps.`,
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (default: $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", envOr("MIGRATIONS_PATH", postgres.DefaultMigrationsPath), "directory holding the migration files")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			if err := postgres.MigrateUp(databaseURL, migrationsPath); err != nil {
				return err
			}
			if !skipRiver {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				ctx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				pool, err := openPool(ctx, config.DatabaseConfig{URL: databaseURL})
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := postgres.MigrateRiver(ctx, pool); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	up.Flags().BoolVar(&skipRiver, "skip-river", false, "do not install the River job tables")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			if err := postgres.MigrateDown(databaseURL, migrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
