package main

import (
	"fmt"

	"fundsledger/internal/config"
	"fundsledger/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(&cfg.Log)

			db, err := database.Open(&cfg.Database)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema migrated", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
