package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPlanningRow_Validation(t *testing.T) {
	row, err := NewPlanningRow("REF1", "12", "ACME", decimal.NewFromInt(10), decimal.Zero, decimal.Zero, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("Expected valid row creation to succeed: %v", err)
	}
	if row.Reference != "REF1" {
		t.Errorf("Expected reference REF1, got %s", row.Reference)
	}

	testCases := []struct {
		name        string
		reference   Reference
		week        Week
		expectError string
	}{
		{"empty reference", "", "12", "reference cannot be empty"},
		{"empty week", "REF1", "", "week cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPlanningRow(tc.reference, tc.week, "", decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestPlanningRow_SupplyForNextWeek(t *testing.T) {
	row := PlanningRow{
		PlannedProduction: decimal.NewFromInt(7),
		AvailableSupply:   decimal.RequireFromString("2.5"),
	}

	if got := row.SupplyForNextWeek(); !got.Equal(decimal.RequireFromString("9.5")) {
		t.Errorf("Expected supply 9.5, got %s", got)
	}
}

func TestPlanningRow_CloneIsIndependent(t *testing.T) {
	lt := 3
	row := PlanningRow{
		Reference:     "REF1",
		LeadTimeWeeks: &lt,
		Extra:         map[string]string{"Site": "IDL"},
	}

	clone := row.Clone()
	*clone.LeadTimeWeeks = 9
	clone.Extra["Site"] = "TIS"

	if *row.LeadTimeWeeks != 3 {
		t.Errorf("Expected original lead time 3, got %d", *row.LeadTimeWeeks)
	}
	if row.Extra["Site"] != "IDL" {
		t.Errorf("Expected original extra IDL, got %s", row.Extra["Site"])
	}
}

func TestPlanningTable_Clone(t *testing.T) {
	table := &PlanningTable{
		Rows:         []PlanningRow{{Reference: "REF1", Extra: map[string]string{"Site": "IDL"}}},
		ExtraColumns: []string{"Site"},
	}

	clone := table.Clone()
	clone.Rows[0].Reference = "REF2"
	clone.Rows[0].Extra["Site"] = "TIS"
	clone.ExtraColumns[0] = "Usine"

	if table.Rows[0].Reference != "REF1" || table.Rows[0].Extra["Site"] != "IDL" {
		t.Errorf("Expected original row untouched, got %+v", table.Rows[0])
	}
	if table.ExtraColumns[0] != "Site" {
		t.Errorf("Expected original extra columns untouched, got %v", table.ExtraColumns)
	}
}

func TestPlanningRow_ResetDerived(t *testing.T) {
	row := PlanningRow{
		RemainingStock: decimal.NewFromInt(-4),
		Status:         StatusShortfall,
		Comment:        "stale",
		ShortQuantity:  4,
	}

	row.ResetDerived()

	if !row.RemainingStock.IsZero() || row.Status != StatusUnclassified || row.Comment != "" || row.ShortQuantity != 0 {
		t.Errorf("Expected derived fields to be cleared, got %+v", row)
	}
}

func TestStockStatus_Parse(t *testing.T) {
	tests := []struct {
		input    string
		expected StockStatus
	}{
		{"OK", StatusOK},
		{"shortfall", StatusShortfall},
		{"⚠️ SS non couvert", StatusSafetyStockBreach},
		{" SafetyStockBreach ", StatusSafetyStockBreach},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStockStatus(tt.input)
			if err != nil {
				t.Fatalf("ParseStockStatus(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseStockStatus(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}

	if _, err := ParseStockStatus("broken"); err == nil {
		t.Error("Expected error for unknown status, got none")
	}
}

func TestParseCallType(t *testing.T) {
	tests := []struct {
		input    string
		expected CallType
	}{
		{"Appel", ClientCall},
		{"Appel planifié", PlannedCall},
		{"Appel planifi\u0082", PlannedCall},
		{"Prévision", OtherCall},
	}

	for _, tt := range tests {
		if got := ParseCallType(tt.input); got != tt.expected {
			t.Errorf("ParseCallType(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
