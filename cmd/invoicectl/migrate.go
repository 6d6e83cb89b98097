package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/invoicing-portal/internal/bootstrap"
	"github.com/iliyamo/invoicing-portal/internal/config"
	"github.com/iliyamo/invoicing-portal/internal/database"
)

const stepsFlagName = "steps"

// MigrateCMD brings the store schema up to date: MySQL migrations or
// MongoDB indexes.  Rollback is MySQL only.
func MigrateCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "manage the store schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := bootstrap.OpenStore(cmd.Context(), config.LoadStore(), true)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := cmd.Flags().GetInt(stepsFlagName)
			if err != nil {
				return err
			}
			if steps < 1 {
				return fmt.Errorf("%s must be at least 1", stepsFlagName)
			}
			cfg := config.LoadStore()
			if cfg.StoreDriver != config.DriverMySQL {
				return fmt.Errorf("rollback is only supported for %s", config.DriverMySQL)
			}
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Rollback(db, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().Int(stepsFlagName, 1, "number of migrations to roll back")
	cmd.AddCommand(down)
	return cmd
}
