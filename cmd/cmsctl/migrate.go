package main

import (
	"github.com/spf13/cobra"

	"github.com/nekogravitycat/visa-cms-backend/internal/db"
)

func newMigrateCmd(rt *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := db.Migrate(cmd.Context(), rt.pool); err != nil {
					return err
				}
				rt.logger.Info("migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return db.MigrationStatus(cmd.Context(), rt.pool)
			},
		},
	)
	return cmd
}
