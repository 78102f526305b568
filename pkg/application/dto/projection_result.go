package dto

import (
	"time"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
)

// ProjectionResult contains the complete output of a projection run
type ProjectionResult struct {
	RunID        string
	ComputedAt   time.Time
	Rows         []entities.PlanningRow
	ExtraColumns []string
	References   []entities.Reference
	Shortfalls   int
	Breaches     int
}

// AlertCount returns the number of rows whose status is not OK
func (r *ProjectionResult) AlertCount() int {
	return r.Shortfalls + r.Breaches
}
