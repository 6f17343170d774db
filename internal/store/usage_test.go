package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/sparetrack/internal/db"
	"github.com/erazemk/sparetrack/internal/model"
)

func use(partID int64, qty int) model.UsageInput {
	return model.UsageInput{SparePartID: partID, QuantityUsed: qty}
}

func TestRecordUsage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	tech := newActor(t, database, "tech", model.RoleTechnician)
	part := mustCreatePart(t, database, admin, partInput("U-1", 10, 5, "2.00"))

	h, err := RecordUsage(ctx, database, tech, model.UsageInput{
		SparePartID:  part.ID,
		QuantityUsed: 3,
		Purpose:      "  pump overhaul ",
		WorkOrder:    "WO-17",
	})
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if h.QuantityBefore != 10 || h.QuantityAfter != 7 || h.QuantityUsed != 3 {
		t.Errorf("unexpected quantities: %+v", h)
	}
	if h.UserID != tech.UserID || h.Username != "tech" {
		t.Errorf("expected entry attributed to tech, got user %d %q", h.UserID, h.Username)
	}
	if h.SparePartCode != "U-1" || h.SparePartName != "Part U-1" {
		t.Errorf("expected joined part fields, got %q %q", h.SparePartCode, h.SparePartName)
	}
	if h.Purpose != "pump overhaul" || h.WorkOrder != "WO-17" {
		t.Errorf("unexpected text fields: %q %q", h.Purpose, h.WorkOrder)
	}

	got, _ := GetSparePart(ctx, database, part.ID)
	if got.Quantity != 7 {
		t.Errorf("expected quantity 7, got %d", got.Quantity)
	}
}

func TestRecordUsageInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	part := mustCreatePart(t, database, admin, partInput("U-2", 2, 1, "1"))

	_, err := RecordUsage(ctx, database, admin, use(part.ID, 3))
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var stockErr *model.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected *InsufficientStockError, got %T", err)
	}
	if stockErr.Available != 2 || stockErr.Requested != 3 {
		t.Errorf("expected available=2 requested=3, got %+v", stockErr)
	}

	got, _ := GetSparePart(ctx, database, part.ID)
	if got.Quantity != 2 {
		t.Errorf("expected quantity unchanged, got %d", got.Quantity)
	}
	if n := countUsage(t, database, part.ID); n != 0 {
		t.Errorf("expected no ledger entry, got %d", n)
	}
}

func TestRecordUsageErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	part := mustCreatePart(t, database, admin, partInput("U-3", 5, 1, "1"))

	tests := []struct {
		name  string
		actor model.Actor
		in    model.UsageInput
		want  error
	}{
		{"zero quantity", admin, use(part.ID, 0), model.ErrInvalidInput},
		{"negative quantity", admin, use(part.ID, -2), model.ErrInvalidInput},
		{"unknown part", admin, use(999, 1), model.ErrNotFound},
		{"anonymous", model.Actor{}, use(part.ID, 1), model.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RecordUsage(ctx, database, tt.actor, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	got, _ := GetSparePart(ctx, database, part.ID)
	if got.Quantity != 5 {
		t.Errorf("expected quantity unchanged, got %d", got.Quantity)
	}
}

func TestRecordUsageStatusTransitions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	part := mustCreatePart(t, database, admin, partInput("FLOW", 10, 5, "1"))

	steps := []struct {
		qty        int
		wantQty    int
		wantStatus model.StockStatus
	}{
		{3, 7, model.StockIn},
		{3, 4, model.StockLow},
	}
	for _, s := range steps {
		if _, err := RecordUsage(ctx, database, admin, use(part.ID, s.qty)); err != nil {
			t.Fatalf("RecordUsage(%d): %v", s.qty, err)
		}
		got, _ := GetSparePart(ctx, database, part.ID)
		if got.Quantity != s.wantQty || got.Status() != s.wantStatus {
			t.Errorf("after using %d: expected %d/%s, got %d/%s",
				s.qty, s.wantQty, s.wantStatus, got.Quantity, got.Status())
		}
	}

	var stockErr *model.InsufficientStockError
	if _, err := RecordUsage(ctx, database, admin, use(part.ID, 5)); !errors.As(err, &stockErr) || stockErr.Available != 4 {
		t.Fatalf("expected insufficient stock with 4 available, got %v", err)
	}

	if _, err := RecordUsage(ctx, database, admin, use(part.ID, 4)); err != nil {
		t.Fatalf("RecordUsage(4): %v", err)
	}
	got, _ := GetSparePart(ctx, database, part.ID)
	if got.Quantity != 0 || got.Status() != model.StockOutOfStock {
		t.Errorf("expected 0/out_of_stock, got %d/%s", got.Quantity, got.Status())
	}

	// The ledger must reproduce the current quantity from the initial one.
	page, err := ListUsage(ctx, database, model.UsageFilter{SparePartID: part.ID})
	if err != nil {
		t.Fatalf("ListUsage: %v", err)
	}
	used := 0
	for _, h := range page.Data {
		used += h.QuantityUsed
		if h.QuantityAfter != h.QuantityBefore-h.QuantityUsed {
			t.Errorf("entry %d: inconsistent quantities %+v", h.ID, h)
		}
	}
	if 10-used != got.Quantity {
		t.Errorf("ledger sum %d does not match quantity %d", used, got.Quantity)
	}
}

func TestRecordUsageConcurrent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	part := mustCreatePart(t, database, admin, partInput("RACE", 10, 1, "1"))

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := RecordUsage(ctx, database, admin, use(part.ID, 1))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if !errors.Is(err, model.ErrInsufficientStock) {
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	for _, err := range failures {
		t.Errorf("unexpected error: %v", err)
	}
	if succeeded != 10 {
		t.Errorf("expected exactly 10 successful deductions, got %d", succeeded)
	}

	got, _ := GetSparePart(ctx, database, part.ID)
	if got.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.Quantity)
	}
	if n := countUsage(t, database, part.ID); n != succeeded {
		t.Errorf("expected %d ledger entries, got %d", succeeded, n)
	}
}

func TestUsageHistoryIsAppendOnly(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	part := mustCreatePart(t, database, admin, partInput("AO", 5, 1, "1"))

	h, err := RecordUsage(ctx, database, admin, use(part.ID, 2))
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}

	if _, err := database.Exec(`UPDATE usage_histories SET notes = 'edited' WHERE id = ?`, h.ID); err == nil {
		t.Error("expected update of a ledger entry to fail")
	}

	got, err := GetUsage(ctx, database, h.ID)
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if got.Notes != "" {
		t.Errorf("expected ledger entry unchanged, got notes %q", got.Notes)
	}
}

func TestGetUsageNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetUsage(context.Background(), database, 7)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// insertUsageAt writes a ledger row with an explicit timestamp, bypassing
// the stock check.
func insertUsageAt(t *testing.T, database *sql.DB, partID, userID int64, at time.Time) {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO usage_histories (spare_part_id, user_id, quantity_used,
		                              quantity_before, quantity_after, created_at)
		 VALUES (?, ?, 1, 1, 0, ?)`,
		partID, userID, at.UTC().Format(time.DateTime),
	)
	if err != nil {
		t.Fatalf("inserting usage: %v", err)
	}
}

func TestListUsageFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	tech := newActor(t, database, "tech", model.RoleTechnician)
	a := mustCreatePart(t, database, admin, partInput("A", 1, 1, "1"))
	b := mustCreatePart(t, database, admin, partInput("B", 1, 1, "1"))

	day := func(s string) time.Time {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	insertUsageAt(t, database, a.ID, admin.UserID, day("2024-03-01").Add(9*time.Hour))
	insertUsageAt(t, database, a.ID, tech.UserID, day("2024-03-02").Add(23*time.Hour))
	insertUsageAt(t, database, b.ID, tech.UserID, day("2024-03-03").Add(8*time.Hour))
	insertUsageAt(t, database, b.ID, admin.UserID, day("2024-03-05").Add(12*time.Hour))

	ptr := func(s string) *time.Time { d := day(s); return &d }

	tests := []struct {
		name   string
		filter model.UsageFilter
		want   int
	}{
		{"all", model.UsageFilter{}, 4},
		{"by part", model.UsageFilter{SparePartID: a.ID}, 2},
		{"by user", model.UsageFilter{UserID: tech.UserID}, 2},
		{"part and user", model.UsageFilter{SparePartID: b.ID, UserID: tech.UserID}, 1},
		{"from inclusive", model.UsageFilter{DateFrom: ptr("2024-03-02")}, 3},
		{"to inclusive", model.UsageFilter{DateTo: ptr("2024-03-02")}, 2},
		{"single day", model.UsageFilter{DateFrom: ptr("2024-03-03"), DateTo: ptr("2024-03-03")}, 1},
		{"empty range", model.UsageFilter{DateFrom: ptr("2024-03-04"), DateTo: ptr("2024-03-04")}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ListUsage(ctx, database, tt.filter)
			if err != nil {
				t.Fatalf("ListUsage: %v", err)
			}
			if page.Total != tt.want || len(page.Data) != tt.want {
				t.Errorf("expected %d entries, got total=%d len=%d", tt.want, page.Total, len(page.Data))
			}
		})
	}

	page, _ := ListUsage(ctx, database, model.UsageFilter{})
	if page.Data[0].SparePartID != b.ID || page.Data[3].SparePartID != a.ID {
		t.Error("expected entries newest first")
	}
	if page.PerPage != model.UsagePageSize {
		t.Errorf("expected page size %d, got %d", model.UsagePageSize, page.PerPage)
	}
}

func TestRecentUsage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	admin := newActor(t, database, "admin", model.RoleAdmin)
	a := mustCreatePart(t, database, admin, partInput("A", 20, 1, "1"))
	b := mustCreatePart(t, database, admin, partInput("B", 20, 1, "1"))

	for i := 0; i < 4; i++ {
		if _, err := RecordUsage(ctx, database, admin, use(a.ID, 1)); err != nil {
			t.Fatal(err)
		}
	}
	last, err := RecordUsage(ctx, database, admin, use(b.ID, 2))
	if err != nil {
		t.Fatal(err)
	}

	all, err := RecentUsage(ctx, database, 0, 3)
	if err != nil {
		t.Fatalf("RecentUsage: %v", err)
	}
	if len(all) != 3 || all[0].ID != last.ID {
		t.Errorf("expected 3 entries led by the newest, got %d", len(all))
	}

	forA, _ := RecentUsage(ctx, database, a.ID, 10)
	if len(forA) != 4 {
		t.Errorf("expected 4 entries for part A, got %d", len(forA))
	}
	for _, h := range forA {
		if h.SparePartID != a.ID {
			t.Errorf("unexpected entry for part %d", h.SparePartID)
		}
	}
}
