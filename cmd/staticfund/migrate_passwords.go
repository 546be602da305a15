package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"staticfund-api/internal/auth"
	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

func newMigratePasswordsCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-passwords",
		Short: "Hash any passwords still stored in plain text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := logging.DefaultLogger()
			defer logger.Sync()

			passwords, err := auth.NewPasswords(cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			migrated, skipped, err := migratePasswords(cmd.Context(), db, passwords, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d, already hashed %d\n", migrated, skipped)
			return nil
		},
	}
}

type credentialStore interface {
	ListCredentials(ctx context.Context) ([]store.Credential, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type hasher interface {
	Hash(password string) (string, error)
}

func migratePasswords(ctx context.Context, db credentialStore, h hasher, logger *zap.Logger) (migrated, skipped int, err error) {
	creds, err := db.ListCredentials(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range creds {
		if auth.IsHashed(c.PasswordHash) {
			skipped++
			continue
		}
		hash, err := h.Hash(c.PasswordHash)
		if err != nil {
			return migrated, skipped, fmt.Errorf("user %d: %w", c.ID, err)
		}
		if err := db.UpdatePassword(ctx, c.ID, hash); err != nil {
			return migrated, skipped, fmt.Errorf("user %d: %w", c.ID, err)
		}
		logger.Info("password hashed", zap.Int64("user_id", c.ID))
		migrated++
	}
	return migrated, skipped, nil
}
