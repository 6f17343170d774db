package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// UsageHistory is one immutable stock deduction.
type UsageHistory struct {
	ID             int64     `json:"id"`
	SparePartID    int64     `json:"spare_part_id"`
	UserID         int64     `json:"user_id"`
	QuantityUsed   int       `json:"quantity_used"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	Purpose        string    `json:"purpose,omitempty"`
	WorkOrder      string    `json:"work_order,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Joined fields (not always populated).
	SparePartName string `json:"spare_part_name,omitempty"`
	SparePartCode string `json:"spare_part_code,omitempty"`
	Username      string `json:"username,omitempty"`
}

// UsageInput describes a deduction to record.
type UsageInput struct {
	SparePartID  int64  `json:"spare_part_id"`
	QuantityUsed int    `json:"quantity_used"`
	Purpose      string `json:"purpose"`
	WorkOrder    string `json:"work_order"`
	Notes        string `json:"notes"`
}

// Normalize trims text fields.
func (in *UsageInput) Normalize() {
	in.Purpose = strings.TrimSpace(in.Purpose)
	in.WorkOrder = strings.TrimSpace(in.WorkOrder)
	in.Notes = strings.TrimSpace(in.Notes)
}

// Validate checks the deduction request.
func (in *UsageInput) Validate() error {
	var v ValidationError
	if in.SparePartID <= 0 {
		v.Add("spare_part_id", "spare part is required")
	}
	switch {
	case in.QuantityUsed < 1:
		v.Add("quantity_used", "quantity used must be at least 1")
	case in.QuantityUsed > MaxQuantity:
		v.Add("quantity_used", "quantity used is too large")
	}
	if utf8.RuneCountInString(in.Purpose) > MaxStringLength {
		v.Add("purpose", "purpose is too long")
	}
	if utf8.RuneCountInString(in.WorkOrder) > MaxStringLength {
		v.Add("work_order", "work order is too long")
	}
	return v.Err()
}

// UsageFilter narrows a ledger listing. Zero values disable a filter.
// Date bounds are inclusive calendar days.
type UsageFilter struct {
	SparePartID int64
	UserID      int64
	DateFrom    *time.Time
	DateTo      *time.Time
	Page        int
}
