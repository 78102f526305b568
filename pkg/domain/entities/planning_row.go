package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reference represents an item/SKU identifier, the grouping key of the projection
type Reference string

// Week represents a planning period label such as "12", "S12" or "2024-W12"
type Week string

// PlanningRow is one line of the supply/demand planning table (reference x week)
type PlanningRow struct {
	Reference         Reference
	Week              Week
	Client            string
	Need              decimal.Decimal
	AvailableSupply   decimal.Decimal
	PlannedProduction decimal.Decimal
	SafetyStock       decimal.Decimal

	// Optional columns, carried through unmodified
	IDLAvailable  decimal.NullDecimal
	LeadTimeWeeks *int
	UnitRevenue   decimal.NullDecimal
	Extra         map[string]string

	// Derived by the projection engine, never trusted from input
	RemainingStock decimal.Decimal
	Status         StockStatus
	Comment        string
	ShortQuantity  int64

	// SourceIndex is the 0-based position of the row in the input table
	SourceIndex int
}

// NewPlanningRow creates a PlanningRow with its required planning figures
func NewPlanningRow(
	reference Reference,
	week Week,
	client string,
	need, availableSupply, plannedProduction, safetyStock decimal.Decimal,
) (*PlanningRow, error) {
	if string(reference) == "" {
		return nil, fmt.Errorf("reference cannot be empty")
	}
	if string(week) == "" {
		return nil, fmt.Errorf("week cannot be empty")
	}

	return &PlanningRow{
		Reference:         reference,
		Week:              week,
		Client:            client,
		Need:              need,
		AvailableSupply:   availableSupply,
		PlannedProduction: plannedProduction,
		SafetyStock:       safetyStock,
	}, nil
}

// SupplyForNextWeek returns the quantity this week's figures bring into the following week's balance
func (r *PlanningRow) SupplyForNextWeek() decimal.Decimal {
	return r.PlannedProduction.Add(r.AvailableSupply)
}

// ResetDerived clears every engine-owned field
func (r *PlanningRow) ResetDerived() {
	r.RemainingStock = decimal.Zero
	r.Status = StatusUnclassified
	r.Comment = ""
	r.ShortQuantity = 0
}

// Clone returns a copy that shares no mutable state with r
func (r PlanningRow) Clone() PlanningRow {
	c := r
	if r.LeadTimeWeeks != nil {
		lt := *r.LeadTimeWeeks
		c.LeadTimeWeeks = &lt
	}
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// IsAlert reports whether the row carries a status other than OK
func (r *PlanningRow) IsAlert() bool {
	return r.Status == StatusShortfall || r.Status == StatusSafetyStockBreach
}
