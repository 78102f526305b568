package services

import (
	"fmt"
	"math"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
)

// Classification is the alert derived from a projected balance
type Classification struct {
	Status        entities.StockStatus
	ShortQuantity int64
	Comment       string
}

var maxShortQuantity = decimal.NewFromInt(math.MaxInt64)

// Classify derives the status of a row from its remaining stock and safety stock.
// A negative balance is a shortfall regardless of the safety stock.
func Classify(remaining, safety decimal.Decimal) Classification {
	if remaining.IsNegative() {
		return Classification{
			Status:  entities.StatusShortfall,
			Comment: "Arrêt client : produire davantage",
		}
	}

	if remaining.LessThan(safety) {
		gap := safety.Sub(remaining).Ceil()
		// ShortQuantity saturates; the comment keeps the exact figure
		missing := int64(math.MaxInt64)
		if gap.LessThan(maxShortQuantity) {
			missing = gap.IntPart()
		}
		return Classification{
			Status:        entities.StatusSafetyStockBreach,
			ShortQuantity: missing,
			Comment:       fmt.Sprintf("Rupture : lancer %s unité(s) pour couvrir le SS", gap.String()),
		}
	}

	return Classification{
		Status:  entities.StatusOK,
		Comment: "OK",
	}
}

// ClassifyRow applies Classify to a projected row in place
func ClassifyRow(row *entities.PlanningRow) {
	c := Classify(row.RemainingStock, row.SafetyStock)
	row.Status = c.Status
	row.ShortQuantity = c.ShortQuantity
	row.Comment = c.Comment
}
