package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// SparePart is a catalog item with its stock level.
type SparePart struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"min_quantity"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	Category    string          `json:"category,omitempty"`
	HasImage    bool            `json:"has_image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockStatus classifies a part's stock level.
type StockStatus string

// Stock statuses.
const (
	StockOutOfStock StockStatus = "out_of_stock"
	StockLow        StockStatus = "low_stock"
	StockIn         StockStatus = "in_stock"
)

// IsLowStock reports whether quantity is at or below the reorder threshold.
func IsLowStock(quantity, minQuantity int) bool {
	return quantity <= minQuantity
}

// StatusOf returns the stock status for the given levels.
func StatusOf(quantity, minQuantity int) StockStatus {
	switch {
	case quantity == 0:
		return StockOutOfStock
	case IsLowStock(quantity, minQuantity):
		return StockLow
	default:
		return StockIn
	}
}

// IsLowStock reports whether the part needs reordering.
func (p SparePart) IsLowStock() bool { return IsLowStock(p.Quantity, p.MinQuantity) }

// Status returns the part's current stock status.
func (p SparePart) Status() StockStatus { return StatusOf(p.Quantity, p.MinQuantity) }

// MarshalJSON adds the derived stock fields and renders price with two decimals.
func (p SparePart) MarshalJSON() ([]byte, error) {
	type plain SparePart
	return json.Marshal(struct {
		plain
		Price      string      `json:"price"`
		IsLowStock bool        `json:"is_low_stock"`
		Status     StockStatus `json:"status"`
	}{
		plain:      plain(p),
		Price:      p.Price.StringFixed(2),
		IsLowStock: p.IsLowStock(),
		Status:     p.Status(),
	})
}

// Field limits.
const (
	MaxStringLength = 255
	PriceScale      = 2
	MaxQuantity     = math.MaxInt32
)

// MaxPrice is the exclusive upper bound for a unit price.
var MaxPrice = decimal.New(1, 8)

// SparePartInput carries the editable fields of a part. Pointer fields are
// required on create; nil means the client omitted them.
type SparePartInput struct {
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Quantity    *int             `json:"quantity"`
	MinQuantity *int             `json:"min_quantity"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Supplier    string           `json:"supplier"`
	Category    string           `json:"category"`
}

// Normalize trims text fields and rounds the price to cents.
func (in *SparePartInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Supplier = strings.TrimSpace(in.Supplier)
	in.Category = strings.TrimSpace(in.Category)
	if in.Price != nil {
		p := in.Price.Round(PriceScale)
		in.Price = &p
	}
}

// ValidateCreate checks the fields required to create a part.
func (in *SparePartInput) ValidateCreate() error {
	var v ValidationError
	in.validateCommon(&v)

	switch {
	case in.Code == "":
		v.Add("code", "part code is required")
	case utf8.RuneCountInString(in.Code) > MaxStringLength:
		v.Add("code", "part code is too long")
	}

	switch {
	case in.Quantity == nil:
		v.Add("quantity", "current quantity is required")
	case *in.Quantity < 0:
		v.Add("quantity", "quantity cannot be negative")
	case *in.Quantity > MaxQuantity:
		v.Add("quantity", "quantity is too large")
	}
	return v.Err()
}

// ValidateUpdate checks the fields accepted by an update. Code and quantity
// are not editable and are ignored.
func (in *SparePartInput) ValidateUpdate() error {
	var v ValidationError
	in.validateCommon(&v)
	return v.Err()
}

func (in *SparePartInput) validateCommon(v *ValidationError) {
	switch {
	case in.Name == "":
		v.Add("name", "spare part name is required")
	case utf8.RuneCountInString(in.Name) > MaxStringLength:
		v.Add("name", "name is too long")
	}

	switch {
	case in.MinQuantity == nil:
		v.Add("min_quantity", "minimum quantity is required")
	case *in.MinQuantity < 1:
		v.Add("min_quantity", "minimum quantity must be at least 1")
	case *in.MinQuantity > MaxQuantity:
		v.Add("min_quantity", "minimum quantity is too large")
	}

	switch {
	case in.Price == nil:
		v.Add("price", "price is required")
	case in.Price.IsNegative():
		v.Add("price", "price cannot be negative")
	case in.Price.GreaterThanOrEqual(MaxPrice):
		v.Add("price", "price is too large")
	}

	for field, value := range map[string]string{
		"location": in.Location,
		"supplier": in.Supplier,
		"category": in.Category,
	} {
		if utf8.RuneCountInString(value) > MaxStringLength {
			v.Add(field, field+" is too long")
		}
	}
}

// PriceCents converts a validated price to integer cents for storage.
func PriceCents(price decimal.Decimal) int64 {
	return price.Round(PriceScale).Shift(PriceScale).IntPart()
}

// PriceFromCents converts stored cents back to a decimal price.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -PriceScale)
}

// Stock status filters accepted by part listings.
const (
	StockFilterLow     = "low"
	StockFilterOut     = "out"
	StockFilterInStock = "in_stock"

	// StockFilterAvailable matches every part with stock left, low or not.
	StockFilterAvailable = "available"
)

// ValidStockFilter reports whether f is empty or a known stock filter.
func ValidStockFilter(f string) bool {
	switch f {
	case "", StockFilterLow, StockFilterOut, StockFilterInStock, StockFilterAvailable:
		return true
	}
	return false
}

// PartOption is the compact form of a part used by pickers.
type PartOption struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// SparePartFilter narrows a part listing.
type SparePartFilter struct {
	Search      string
	Category    string
	StockStatus string
	Page        int
}
