package events

import (
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ProjectionCompletedEvent  = "projection.completed"
	ShortfallDetectedEvent    = "stock.shortfall"
	SafetyBreachDetectedEvent = "stock.safety_breach"
	ProjectionStreamID        = "_projection"
)

// AlertEventTypes lists the per-row alert events
var AlertEventTypes = []string{ShortfallDetectedEvent, SafetyBreachDetectedEvent}

type ProjectionCompleted struct {
	RunID      string `json:"run_id"`
	Rows       int    `json:"rows"`
	References int    `json:"references"`
	Shortfalls int    `json:"shortfalls"`
	Breaches   int    `json:"breaches"`
}

type StockAlert struct {
	RunID          string               `json:"run_id"`
	Reference      entities.Reference   `json:"reference"`
	Week           entities.Week        `json:"week"`
	Client         string               `json:"client"`
	Status         entities.StockStatus `json:"status"`
	RemainingStock decimal.Decimal      `json:"remaining_stock"`
	SafetyStock    decimal.Decimal      `json:"safety_stock"`
	ShortQuantity  int64                `json:"short_quantity"`
	Comment        string               `json:"comment"`
}

func NewProjectionCompletedEvent(summary ProjectionCompleted) Event {
	return NewEvent(ProjectionCompletedEvent, ProjectionStreamID, summary)
}

// NewStockAlertEvent returns nil for rows that are not alerts
func NewStockAlertEvent(runID string, row entities.PlanningRow) Event {
	var eventType string
	switch row.Status {
	case entities.StatusShortfall:
		eventType = ShortfallDetectedEvent
	case entities.StatusSafetyStockBreach:
		eventType = SafetyBreachDetectedEvent
	default:
		return nil
	}

	return NewEvent(eventType, string(row.Reference), StockAlert{
		RunID:          runID,
		Reference:      row.Reference,
		Week:           row.Week,
		Client:         row.Client,
		Status:         row.Status,
		RemainingStock: row.RemainingStock,
		SafetyStock:    row.SafetyStock,
		ShortQuantity:  row.ShortQuantity,
		Comment:        row.Comment,
	})
}

// NewAlertLogger returns a handler writing every alert to the logger
func NewAlertLogger(logger *zap.Logger) EventHandler {
	return HandlerFunc{
		Types: AlertEventTypes,
		Fn: func(event Event) error {
			alert, ok := event.Data().(StockAlert)
			if !ok {
				return nil
			}
			logger.Info("stock alert",
				zap.String("status", alert.Status.String()),
				zap.String("reference", string(alert.Reference)),
				zap.String("week", string(alert.Week)),
				zap.String("client", alert.Client),
				zap.String("remaining_stock", alert.RemainingStock.String()),
				zap.Int64("short_quantity", alert.ShortQuantity))
			return nil
		},
	}
}
