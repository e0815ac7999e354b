package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avatarctic/ledger/configs"
	"github.com/avatarctic/ledger/internal/infrastructure/db"
)

func newMigrateCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Apply or roll back database migrations.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := newLogger(&cfg.Log)

			database, err := db.Open(&cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			switch direction {
			case "up":
				if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
					return err
				}
			case "down":
				if err := database.Rollback(cfg.Database.MigrationsPath, steps); err != nil {
					return err
				}
			case "version":
			default:
				return fmt.Errorf("unknown direction %q", direction)
			}

			v, dirty, err := database.Version(cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			logger.WithFields(map[string]interface{}{"version": v, "dirty": dirty}).Info("schema version")
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	return cmd
}
