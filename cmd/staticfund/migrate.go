package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

func newMigrateCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := logging.DefaultLogger()
			defer logger.Sync()

			db, err := store.Open(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			logger.Info("schema up to date", zap.String("db_path", cfg.Database.Path))
			return db.Close()
		},
	}
}
