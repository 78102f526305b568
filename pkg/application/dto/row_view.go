package dto

import (
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
)

// RowView is the serialized form of a projected planning row
type RowView struct {
	Reference         entities.Reference   `json:"reference"`
	Week              entities.Week        `json:"week"`
	Client            string               `json:"client"`
	Need              decimal.Decimal      `json:"need"`
	AvailableSupply   decimal.Decimal      `json:"available_supply"`
	PlannedProduction decimal.Decimal      `json:"planned_production"`
	SafetyStock       decimal.Decimal      `json:"safety_stock"`
	IDLAvailable      decimal.NullDecimal  `json:"idl_available"`
	LeadTimeWeeks     *int                 `json:"lead_time_weeks"`
	UnitRevenue       decimal.NullDecimal  `json:"unit_revenue"`
	Extra             map[string]string    `json:"extra,omitempty"`
	RemainingStock    decimal.Decimal      `json:"remaining_stock"`
	Status            entities.StockStatus `json:"status"`
	StatusLabel       string               `json:"status_label"`
	Comment           string               `json:"comment"`
	ShortQuantity     int64                `json:"short_quantity"`
}

// NewRowView converts a projected row
func NewRowView(row entities.PlanningRow) RowView {
	return RowView{
		Reference:         row.Reference,
		Week:              row.Week,
		Client:            row.Client,
		Need:              row.Need,
		AvailableSupply:   row.AvailableSupply,
		PlannedProduction: row.PlannedProduction,
		SafetyStock:       row.SafetyStock,
		IDLAvailable:      row.IDLAvailable,
		LeadTimeWeeks:     row.LeadTimeWeeks,
		UnitRevenue:       row.UnitRevenue,
		Extra:             row.Extra,
		RemainingStock:    row.RemainingStock,
		Status:            row.Status,
		StatusLabel:       row.Status.Label(),
		Comment:           row.Comment,
		ShortQuantity:     row.ShortQuantity,
	}
}

// NewRowViews converts projected rows, never returning nil
func NewRowViews(rows []entities.PlanningRow) []RowView {
	views := make([]RowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewRowView(row))
	}
	return views
}
