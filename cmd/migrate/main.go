package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	loadEnvFiles()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply and inspect bookswap database migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", migrationsDir(), "migrations directory")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(db *sql.DB) error {
					if err := goose.UpContext(cmd.Context(), db, dir); err != nil {
						return fmt.Errorf("run migrations: %w", err)
					}
					log.Info("migrations applied successfully")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(db *sql.DB) error {
					if err := goose.DownContext(cmd.Context(), db, dir); err != nil {
						return fmt.Errorf("rollback migration: %w", err)
					}
					log.Info("migration rolled back successfully")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), func(db *sql.DB) error {
					return goose.StatusContext(cmd.Context(), db, dir)
				})
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a new SQL migration file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				goose.SetSequential(true)
				if err := goose.Create(nil, dir, args[0], "sql"); err != nil {
					return fmt.Errorf("create migration: %w", err)
				}
				return nil
			},
		},
	)
	return root
}

func withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	pool, err := pgxpool.New(ctx, databaseDSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(db)
}
