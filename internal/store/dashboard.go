package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/sparetrack/internal/model"
)

// GetDashboard computes the overview for actor. Counts are read without any
// isolation from in-flight deductions. Administrators also get user and
// usage statistics.
func GetDashboard(ctx context.Context, db *sql.DB, actor model.Actor) (*model.Dashboard, error) {
	stats, err := dashboardStats(ctx, db)
	if err != nil {
		return nil, err
	}

	recent, err := RecentUsage(ctx, db, 0, model.DashboardRecentUsage)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.UsageHistory{}
	}

	low, err := lowStockParts(ctx, db, model.DashboardLowStock, 0)
	if err != nil {
		return nil, err
	}
	if low == nil {
		low = []model.SparePart{}
	}

	d := &model.Dashboard{
		Stats:         *stats,
		RecentUsage:   recent,
		LowStockItems: low,
	}

	if actor.IsAdmin() {
		d.Admin, err = adminStats(ctx, db)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func dashboardStats(ctx context.Context, db *sql.DB) (*model.DashboardStats, error) {
	var s model.DashboardStats
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN `+lowStockCondition+` THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0)
		 FROM spare_parts`,
	).Scan(&s.TotalParts, &s.LowStockParts, &s.OutOfStockParts)
	if err != nil {
		return nil, fmt.Errorf("computing stock statistics: %w", err)
	}

	s.TotalValue, err = inventoryValue(ctx, db)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// inventoryValue sums quantity times price. Quantities are summed per price
// in SQL and multiplied in decimal, so large stock cannot overflow int64.
func inventoryValue(ctx context.Context, db *sql.DB) (decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT price_cents, SUM(quantity) FROM spare_parts
		 WHERE quantity > 0 AND price_cents > 0
		 GROUP BY price_cents`,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("computing inventory value: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var cents, quantity int64
		if err := rows.Scan(&cents, &quantity); err != nil {
			return decimal.Zero, fmt.Errorf("scanning inventory value: %w", err)
		}
		total = total.Add(model.PriceFromCents(cents).Mul(decimal.NewFromInt(quantity)))
	}
	return total, rows.Err()
}

func adminStats(ctx context.Context, db *sql.DB) (*model.AdminStats, error) {
	total, err := CountUsers(ctx, db)
	if err != nil {
		return nil, err
	}

	users, err := ListRecentUsers(ctx, db, model.DashboardRecentUsers)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}

	daily, err := DailyUsage(ctx, db, model.DashboardUsageDays)
	if err != nil {
		return nil, err
	}

	return &model.AdminStats{
		TotalUsers:  total,
		RecentUsers: users,
		UsageStats:  daily,
	}, nil
}

// DailyUsage counts ledger entries per day over the last days days, oldest first.
// Days without entries are omitted.
func DailyUsage(ctx context.Context, db *sql.DB, days int) ([]model.DailyUsage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DATE(created_at) AS day, COUNT(*)
		 FROM usage_histories
		 WHERE created_at >= datetime('now', ?)
		 GROUP BY day
		 ORDER BY day`,
		fmt.Sprintf("-%d days", days),
	)
	if err != nil {
		return nil, fmt.Errorf("computing daily usage: %w", err)
	}
	defer rows.Close()

	stats := []model.DailyUsage{}
	for rows.Next() {
		var d model.DailyUsage
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("scanning daily usage: %w", err)
		}
		stats = append(stats, d)
	}
	return stats, rows.Err()
}
