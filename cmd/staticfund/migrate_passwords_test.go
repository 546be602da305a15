package main

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"staticfund-api/internal/auth"
	"staticfund-api/internal/store"
)

func TestMigratePasswords(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "pw.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	passwords, err := auth.NewPasswords(4)
	if err != nil {
		t.Fatal(err)
	}
	hashed, _ := passwords.Hash("already")

	plain, err := db.CreateUser(ctx, store.NewUser{Email: "plain@example.com", PasswordHash: "hunter22"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.CreateUser(ctx, store.NewUser{Email: "hashed@example.com", PasswordHash: hashed}); err != nil {
		t.Fatal(err)
	}

	migrated, skipped, err := migratePasswords(ctx, db, passwords, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	if migrated != 1 || skipped != 1 {
		t.Fatalf("migrated %d, skipped %d", migrated, skipped)
	}

	u, err := db.GetUser(ctx, plain.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !passwords.Check(u.PasswordHash, "hunter22") {
		t.Fatal("plain password not rehashed correctly")
	}

	// Second run is a no-op.
	migrated, skipped, _ = migratePasswords(ctx, db, passwords, zaptest.NewLogger(t))
	if migrated != 0 || skipped != 2 {
		t.Fatalf("rerun migrated %d, skipped %d", migrated, skipped)
	}
}
