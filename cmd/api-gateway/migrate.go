package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/noah-isme/maintenance-api/internal/repository/migrations"
	"github.com/noah-isme/maintenance-api/pkg/config"
	"github.com/noah-isme/maintenance-api/pkg/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the embedded goose migrations against the database
configured by DB_*. Only the postgres store has a schema; the mongo store
creates its indexes on startup.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withDatabase(func(ctx context.Context, db *sqlx.DB) error {
			if err := migrations.Up(ctx, db.DB); err != nil {
				return err
			}
			return printVersion(ctx, db, "APPLIED")
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withDatabase(func(ctx context.Context, db *sqlx.DB) error {
			if err := migrations.Down(ctx, db.DB); err != nil {
				return err
			}
			return printVersion(ctx, db, "ROLLED BACK")
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: withDatabase(func(ctx context.Context, db *sqlx.DB) error {
			return migrations.Status(ctx, db.DB)
		}),
	})

	return cmd
}

func withDatabase(run func(ctx context.Context, db *sqlx.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Store.Driver != config.StorePostgres {
			fmt.Printf("%s STORE_DRIVER is %q; migrations target the postgres database anyway\n",
				color.New(color.FgYellow).Sprint("NOTE"), cfg.Store.Driver)
		}

		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		return run(cmd.Context(), db)
	}
}

func printVersion(ctx context.Context, db *sqlx.DB, verb string) error {
	version, err := migrations.Version(ctx, db.DB)
	if err != nil {
		return err
	}
	fmt.Printf("%s schema at version %d\n", color.New(color.FgGreen).Sprint(verb), version)
	return nil
}
