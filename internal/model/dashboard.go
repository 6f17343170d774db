package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Dashboard aggregates the overview shown after login.
type Dashboard struct {
	Stats         DashboardStats `json:"stats"`
	RecentUsage   []UsageHistory `json:"recent_usage"`
	LowStockItems []SparePart    `json:"low_stock_items"`
	Admin         *AdminStats    `json:"admin,omitempty"`
}

// DashboardStats holds the catalog-wide counters.
type DashboardStats struct {
	TotalParts      int             `json:"total_parts"`
	LowStockParts   int             `json:"low_stock_parts"`
	OutOfStockParts int             `json:"out_of_stock_parts"`
	TotalValue      decimal.Decimal `json:"total_value"`
}

// MarshalJSON renders the inventory value with two decimals, like part prices.
func (s DashboardStats) MarshalJSON() ([]byte, error) {
	type plain DashboardStats
	return json.Marshal(struct {
		plain
		TotalValue string `json:"total_value"`
	}{
		plain:      plain(s),
		TotalValue: s.TotalValue.StringFixed(PriceScale),
	})
}

// AdminStats is only computed for administrators.
type AdminStats struct {
	TotalUsers  int          `json:"total_users"`
	RecentUsers []User       `json:"recent_users"`
	UsageStats  []DailyUsage `json:"usage_stats"`
}

// DailyUsage counts ledger entries recorded on one day (YYYY-MM-DD).
type DailyUsage struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Dashboard widget sizes.
const (
	DashboardRecentUsage = 5
	DashboardLowStock    = 10
	DashboardRecentUsers = 5
	DashboardUsageDays   = 7
	PartRecentUsage      = 10
)
