package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/sparetrack/internal/model"
)

const usageSelect = `SELECT h.id, h.spare_part_id, h.user_id, h.quantity_used,
	       h.quantity_before, h.quantity_after, h.purpose, h.work_order, h.notes,
	       h.created_at, p.name, p.code, u.username
	FROM usage_histories h
	JOIN spare_parts p ON p.id = h.spare_part_id
	JOIN users u ON u.id = h.user_id`

const dayFormat = "2006-01-02"

// RecordUsage deducts stock from a part and appends the matching ledger entry
// in one transaction. The transaction begins IMMEDIATE, so concurrent
// deductions on the same database serialize on the write lock and each one
// validates against the committed quantity. The update is additionally a
// compare-and-swap on the quantity that was read.
func RecordUsage(ctx context.Context, db *sql.DB, actor model.Actor, in model.UsageInput) (*model.UsageHistory, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if !actor.Authenticated() {
		return nil, fmt.Errorf("recording usage: %w", model.ErrUnauthorized)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var before int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM spare_parts WHERE id = ?`, in.SparePartID,
	).Scan(&before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spare part %d: %w", in.SparePartID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking available quantity: %w", err)
	}

	if before < in.QuantityUsed {
		return nil, &model.InsufficientStockError{Available: before, Requested: in.QuantityUsed}
	}
	after := before - in.QuantityUsed

	result, err := tx.ExecContext(ctx,
		`UPDATE spare_parts SET quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity = ?`,
		after, in.SparePartID, before,
	)
	if err != nil {
		return nil, fmt.Errorf("updating quantity: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("spare part %d: %w", in.SparePartID, model.ErrStockConflict)
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO usage_histories (spare_part_id, user_id, quantity_used,
		                              quantity_before, quantity_after, purpose, work_order, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.SparePartID, actor.UserID, in.QuantityUsed, before, after,
		nullString(in.Purpose), nullString(in.WorkOrder), nullString(in.Notes),
	)
	if err != nil {
		return nil, fmt.Errorf("recording usage: %w", err)
	}

	usageID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting usage id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing usage: %w", err)
	}

	return GetUsage(ctx, db, usageID)
}

// GetUsage returns a ledger entry by ID with its part and user resolved.
func GetUsage(ctx context.Context, db *sql.DB, id int64) (*model.UsageHistory, error) {
	h, err := scanUsage(db.QueryRowContext(ctx, usageSelect+` WHERE h.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("usage %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting usage: %w", err)
	}
	return h, nil
}

// ListUsage returns one page of ledger entries matching the filter, newest first.
func ListUsage(ctx context.Context, db *sql.DB, f model.UsageFilter) (*model.Page[model.UsageHistory], error) {
	conds := []string{"1=1"}
	var args []any

	if f.SparePartID > 0 {
		conds = append(conds, `h.spare_part_id = ?`)
		args = append(args, f.SparePartID)
	}
	if f.UserID > 0 {
		conds = append(conds, `h.user_id = ?`)
		args = append(args, f.UserID)
	}
	if f.DateFrom != nil {
		conds = append(conds, `DATE(h.created_at) >= ?`)
		args = append(args, f.DateFrom.Format(dayFormat))
	}
	if f.DateTo != nil {
		conds = append(conds, `DATE(h.created_at) <= ?`)
		args = append(args, f.DateTo.Format(dayFormat))
	}
	where := strings.Join(conds, " AND ")
	page, offset := model.PageOffset(f.Page, model.UsagePageSize)

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_histories h WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting usage: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		usageSelect+` WHERE `+where+` ORDER BY h.created_at DESC, h.id DESC LIMIT ? OFFSET ?`,
		append(args, model.UsagePageSize, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing usage: %w", err)
	}
	defer rows.Close()

	entries, err := scanUsages(rows)
	if err != nil {
		return nil, err
	}
	return model.NewPage(entries, page, model.UsagePageSize, total), nil
}

// RecentUsage returns the newest ledger entries, for one part or, when
// sparePartID is 0, across all parts.
func RecentUsage(ctx context.Context, db *sql.DB, sparePartID int64, limit int) ([]model.UsageHistory, error) {
	query := usageSelect
	var args []any
	if sparePartID > 0 {
		query += ` WHERE h.spare_part_id = ?`
		args = append(args, sparePartID)
	}
	query += ` ORDER BY h.created_at DESC, h.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recent usage: %w", err)
	}
	defer rows.Close()

	return scanUsages(rows)
}

func scanUsage(row rowScanner) (*model.UsageHistory, error) {
	h := &model.UsageHistory{}
	var purpose, workOrder, notes sql.NullString
	if err := row.Scan(&h.ID, &h.SparePartID, &h.UserID, &h.QuantityUsed,
		&h.QuantityBefore, &h.QuantityAfter, &purpose, &workOrder, &notes,
		&h.CreatedAt, &h.SparePartName, &h.SparePartCode, &h.Username); err != nil {
		return nil, err
	}
	h.Purpose = purpose.String
	h.WorkOrder = workOrder.String
	h.Notes = notes.String
	return h, nil
}

func scanUsages(rows *sql.Rows) ([]model.UsageHistory, error) {
	var entries []model.UsageHistory
	for rows.Next() {
		h, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning usage: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}
