package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDashboardStatsJSONFixesValueScale(t *testing.T) {
	tests := []struct {
		value decimal.Decimal
		want  string
	}{
		{decimal.Zero, "0.00"},
		{decimal.New(125, -1), "12.50"},
		{PriceFromCents(123456789), "1234567.89"},
	}

	for _, tt := range tests {
		data, err := json.Marshal(DashboardStats{TotalParts: 2, TotalValue: tt.value})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if got["total_value"] != tt.want {
			t.Errorf("total_value = %v, want %q", got["total_value"], tt.want)
		}
		if got["total_parts"] != float64(2) {
			t.Errorf("expected counters to be kept, got %v", got)
		}
	}
}
