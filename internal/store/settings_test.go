package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/sparetrack/internal/db"
	"github.com/erazemk/sparetrack/internal/model"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestPutAndGetSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := GetSetting(ctx, database, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := PutSetting(ctx, database, "currency", "EUR"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := PutSetting(ctx, database, "currency", "USD"); err != nil {
		t.Fatalf("PutSetting overwrite: %v", err)
	}

	got, err := GetSetting(ctx, database, "currency")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "USD" {
		t.Errorf("expected USD, got %q", got)
	}
}
