package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Migrations run while the application starts.
			var log *zap.Logger
			stop, err := startApp(cmd.Context(), &log)
			if err != nil {
				return err
			}
			defer stop()

			log.Info("migrations applied")
			return nil
		},
	}
}
