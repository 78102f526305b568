package services

import (
	"math"
	"testing"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		remaining     string
		safety        string
		expected      entities.StockStatus
		shortQuantity int64
	}{
		{"remaining_equals_safety", "5", "5", entities.StatusOK, 0},
		{"remaining_above_safety", "12", "5", entities.StatusOK, 0},
		{"one_below_safety", "4", "5", entities.StatusSafetyStockBreach, 1},
		{"zero_with_positive_safety", "0", "3", entities.StatusSafetyStockBreach, 3},
		{"fractional_gap_rounds_up", "2.4", "5", entities.StatusSafetyStockBreach, 3},
		{"zero_with_zero_safety", "0", "0", entities.StatusOK, 0},
		{"negative_with_zero_safety", "-1", "0", entities.StatusShortfall, 0},
		{"negative_with_high_safety", "-1", "100", entities.StatusShortfall, 0},
		{"negative_with_negative_safety", "-1", "-5", entities.StatusShortfall, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(decimal.RequireFromString(tt.remaining), decimal.RequireFromString(tt.safety))
			if c.Status != tt.expected {
				t.Errorf("Classify(%s, %s) status = %v, want %v", tt.remaining, tt.safety, c.Status, tt.expected)
			}
			if c.ShortQuantity != tt.shortQuantity {
				t.Errorf("Classify(%s, %s) short quantity = %d, want %d", tt.remaining, tt.safety, c.ShortQuantity, tt.shortQuantity)
			}
			if c.Comment == "" {
				t.Error("Expected a comment for every classification")
			}
		})
	}
}

func TestClassify_BreachCommentCarriesQuantity(t *testing.T) {
	c := Classify(decimal.NewFromInt(1), decimal.NewFromInt(8))

	expected := "Rupture : lancer 7 unité(s) pour couvrir le SS"
	if c.Comment != expected {
		t.Errorf("Expected comment %q, got %q", expected, c.Comment)
	}
}

func TestClassify_HugeGapSaturatesShortQuantity(t *testing.T) {
	c := Classify(decimal.Zero, decimal.RequireFromString("1e25"))

	if c.Status != entities.StatusSafetyStockBreach {
		t.Fatalf("Expected safety stock breach, got %v", c.Status)
	}
	if c.ShortQuantity != math.MaxInt64 {
		t.Errorf("Expected short quantity to saturate at %d, got %d", int64(math.MaxInt64), c.ShortQuantity)
	}
	expected := "Rupture : lancer 10000000000000000000000000 unité(s) pour couvrir le SS"
	if c.Comment != expected {
		t.Errorf("Expected comment %q, got %q", expected, c.Comment)
	}
}

func TestClassifyRow(t *testing.T) {
	row := entities.PlanningRow{
		RemainingStock: decimal.NewFromInt(-3),
		SafetyStock:    decimal.NewFromInt(2),
	}

	ClassifyRow(&row)

	if row.Status != entities.StatusShortfall {
		t.Errorf("Expected Shortfall, got %v", row.Status)
	}
	if !row.IsAlert() {
		t.Error("Expected shortfall row to be an alert")
	}
}
