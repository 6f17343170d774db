package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/sparetrack/internal/model"
)

const sparePartColumns = `id, name, code, quantity, min_quantity, price_cents,
	description, location, supplier, category, image_mime IS NOT NULL,
	created_at, updated_at`

// lowStockCondition matches parts at or below their reorder threshold.
const lowStockCondition = `quantity <= min_quantity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSparePart(row rowScanner) (*model.SparePart, error) {
	p := &model.SparePart{}
	var cents int64
	var description, location, supplier, category sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Quantity, &p.MinQuantity, &cents,
		&description, &location, &supplier, &category, &p.HasImage,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Price = model.PriceFromCents(cents)
	p.Description = description.String
	p.Location = location.String
	p.Supplier = supplier.String
	p.Category = category.String
	return p, nil
}

func scanSpareParts(rows *sql.Rows) ([]model.SparePart, error) {
	var parts []model.SparePart
	for rows.Next() {
		p, err := scanSparePart(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning spare part: %w", err)
		}
		parts = append(parts, *p)
	}
	return parts, rows.Err()
}

// CreateSparePart creates a new spare part. Only administrators may create parts.
func CreateSparePart(ctx context.Context, db *sql.DB, actor model.Actor, in model.SparePartInput) (*model.SparePart, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("creating spare part: %w", model.ErrUnauthorized)
	}

	in.Normalize()
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO spare_parts (name, code, quantity, min_quantity, price_cents,
		                          description, location, supplier, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Code, *in.Quantity, *in.MinQuantity, model.PriceCents(*in.Price),
		nullString(in.Description), nullString(in.Location), nullString(in.Supplier), nullString(in.Category),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating spare part %q: %w", in.Code, model.ErrDuplicateCode)
	}
	if err != nil {
		return nil, fmt.Errorf("creating spare part: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting spare part id: %w", err)
	}

	return GetSparePart(ctx, db, id)
}

// GetSparePart returns a spare part by ID.
func GetSparePart(ctx context.Context, db *sql.DB, id int64) (*model.SparePart, error) {
	p, err := scanSparePart(db.QueryRowContext(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("spare part %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting spare part: %w", err)
	}
	return p, nil
}

// UpdateSparePart updates a part's descriptive fields, threshold and price.
// Code and quantity are left untouched; stock changes go through
// RecordUsage and RestockSparePart.
func UpdateSparePart(ctx context.Context, db *sql.DB, actor model.Actor, id int64, in model.SparePartInput) (*model.SparePart, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("updating spare part: %w", model.ErrUnauthorized)
	}

	in.Normalize()
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE spare_parts
		 SET name = ?, min_quantity = ?, price_cents = ?, description = ?,
		     location = ?, supplier = ?, category = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		in.Name, *in.MinQuantity, model.PriceCents(*in.Price), nullString(in.Description),
		nullString(in.Location), nullString(in.Supplier), nullString(in.Category), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating spare part: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("spare part %d: %w", id, model.ErrNotFound)
	}

	return GetSparePart(ctx, db, id)
}

// DeleteSparePart removes a part together with its usage history.
func DeleteSparePart(ctx context.Context, db *sql.DB, actor model.Actor, id int64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("deleting spare part: %w", model.ErrUnauthorized)
	}

	result, err := db.ExecContext(ctx, `DELETE FROM spare_parts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting spare part: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("spare part %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// RestockSparePart increases a part's quantity. Restocks are not written to
// the usage ledger. The resulting quantity may not exceed model.MaxQuantity.
func RestockSparePart(ctx context.Context, db *sql.DB, actor model.Actor, id int64, amount int) (*model.SparePart, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("restocking spare part: %w", model.ErrUnauthorized)
	}
	v := &model.ValidationError{}
	switch {
	case amount < 1:
		v.Add("amount", "amount must be at least 1")
	case amount > model.MaxQuantity:
		v.Add("amount", "amount is too large")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE spare_parts SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity <= ? - ?`,
		amount, id, model.MaxQuantity, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("restocking spare part: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Either the part is gone or the restock would exceed the cap.
		if _, err := GetSparePart(ctx, db, id); err != nil {
			return nil, err
		}
		v.Add("amount", "restock would exceed the maximum quantity")
		return nil, v
	}

	return GetSparePart(ctx, db, id)
}

// partFilterClause builds the WHERE clause for a part listing.
func partFilterClause(f model.SparePartFilter) (string, []any) {
	conds := []string{"1=1"}
	var args []any

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := likePattern(s)
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR code LIKE ? ESCAPE '\'
		      OR description LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\'
		      OR supplier LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	if f.Category != "" {
		conds = append(conds, `category = ?`)
		args = append(args, f.Category)
	}

	switch f.StockStatus {
	case model.StockFilterLow:
		conds = append(conds, lowStockCondition)
	case model.StockFilterOut:
		conds = append(conds, `quantity = 0`)
	case model.StockFilterInStock:
		conds = append(conds, `quantity > 0 AND quantity > min_quantity`)
	case model.StockFilterAvailable:
		conds = append(conds, `quantity > 0`)
	}

	return strings.Join(conds, " AND "), args
}

// ListSpareParts returns one page of parts matching the filter, newest first.
func ListSpareParts(ctx context.Context, db *sql.DB, f model.SparePartFilter) (*model.Page[model.SparePart], error) {
	if !model.ValidStockFilter(f.StockStatus) {
		v := &model.ValidationError{}
		v.Add("stock_status", "unknown stock status")
		return nil, v
	}

	where, args := partFilterClause(f)
	page, offset := model.PageOffset(f.Page, model.PartsPageSize)

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM spare_parts WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting spare parts: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE `+where+`
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, model.PartsPageSize, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing spare parts: %w", err)
	}
	defer rows.Close()

	parts, err := scanSpareParts(rows)
	if err != nil {
		return nil, err
	}
	return model.NewPage(parts, page, model.PartsPageSize, total), nil
}

// ListLowStock returns one page of low-stock parts, lowest quantity first.
func ListLowStock(ctx context.Context, db *sql.DB, page int) (*model.Page[model.SparePart], error) {
	page, offset := model.PageOffset(page, model.LowStockPageSize)

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM spare_parts WHERE `+lowStockCondition,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting low stock parts: %w", err)
	}

	parts, err := lowStockParts(ctx, db, model.LowStockPageSize, offset)
	if err != nil {
		return nil, err
	}
	return model.NewPage(parts, page, model.LowStockPageSize, total), nil
}

func lowStockParts(ctx context.Context, db *sql.DB, limit, offset int) ([]model.SparePart, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sparePartColumns+` FROM spare_parts WHERE `+lowStockCondition+`
		 ORDER BY quantity ASC, id ASC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low stock parts: %w", err)
	}
	defer rows.Close()

	return scanSpareParts(rows)
}

// ListPartOptions returns every part in name order for pickers. With
// availableOnly set, parts without stock are left out.
func ListPartOptions(ctx context.Context, db *sql.DB, availableOnly bool) ([]model.PartOption, error) {
	query := `SELECT id, name, code, quantity FROM spare_parts`
	if availableOnly {
		query += ` WHERE quantity > 0`
	}
	query += ` ORDER BY name, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing part options: %w", err)
	}
	defer rows.Close()

	options := []model.PartOption{}
	for rows.Next() {
		var o model.PartOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Code, &o.Quantity); err != nil {
			return nil, fmt.Errorf("scanning part option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

// ListCategories returns the distinct non-empty part categories, sorted.
func ListCategories(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT category FROM spare_parts
		 WHERE category IS NOT NULL AND category != ''
		 ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SetSparePartImage sets a part's photo. Only administrators may change photos.
func SetSparePartImage(ctx context.Context, db *sql.DB, actor model.Actor, id int64, image []byte, mime string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("setting spare part image: %w", model.ErrUnauthorized)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE spare_parts SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting spare part image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("spare part %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetSparePartImage returns a part's photo and MIME type.
func GetSparePartImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM spare_parts WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("spare part %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting spare part image: %w", err)
	}
	if len(image) == 0 {
		return nil, "", fmt.Errorf("spare part %d image: %w", id, model.ErrNotFound)
	}
	return image, mime.String, nil
}
