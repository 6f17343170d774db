package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sparetrack/internal/model"
)

func newActor(t *testing.T, database *sql.DB, username, role string) model.Actor {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "hash", role)
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", username, err)
	}
	return model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func partInput(code string, quantity, minQuantity int, price string) model.SparePartInput {
	p := decimal.RequireFromString(price)
	return model.SparePartInput{
		Name:        "Part " + code,
		Code:        code,
		Quantity:    &quantity,
		MinQuantity: &minQuantity,
		Price:       &p,
	}
}

func mustCreatePart(t *testing.T, database *sql.DB, admin model.Actor, in model.SparePartInput) *model.SparePart {
	t.Helper()
	p, err := CreateSparePart(context.Background(), database, admin, in)
	if err != nil {
		t.Fatalf("CreateSparePart(%q): %v", in.Code, err)
	}
	return p
}

func countUsage(t *testing.T, database *sql.DB, partID int64) int {
	t.Helper()
	var n int
	if err := database.QueryRow(
		`SELECT COUNT(*) FROM usage_histories WHERE spare_part_id = ?`, partID,
	).Scan(&n); err != nil {
		t.Fatalf("counting usage: %v", err)
	}
	return n
}
