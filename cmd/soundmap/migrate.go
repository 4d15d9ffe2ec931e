package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/soundmap/config"
	"github.com/sagarc03/soundmap/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the sounds table and validate its schema",
	Long: `Create the sounds table and its indexes if they do not exist, then
check the live schema against the expected one. This is useful when:
  - Setting up a new database with database.auto_migrate disabled
  - Verifying a database before pointing a server at it`,
	RunE: runMigrate,
}

var migrateValidateOnly bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateValidateOnly, "validate-only", false, "only validate the schema, do not create anything")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database.Config)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !migrateValidateOnly {
		slog.Info("migrating database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Sounds)
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("schema is up to date", "table", cfg.Database.Tables.Sounds)
	return nil
}
