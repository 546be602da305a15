package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"staticfund-api/internal/backup"
	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

func newBackupCmd(load loadFunc) *cobra.Command {
	var (
		dir  string
		keep int
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a database backup and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Backup.Dir
			}
			if keep <= 0 {
				keep = cfg.Backup.Keep
			}

			logger := logging.DefaultLogger()
			defer logger.Sync()

			db, err := store.Open(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			path, err := backup.Once(cmd.Context(), db, dir, keep, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default from config)")
	cmd.Flags().IntVar(&keep, "keep", 0, "number of backups to keep (default from config)")
	return cmd
}
