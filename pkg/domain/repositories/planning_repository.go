package repositories

import (
	"errors"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
)

// ErrReferenceNotFound is returned when a reference has no stored rows
var ErrReferenceNotFound = errors.New("reference not found")

// PlanningRepository provides read access to the projected planning table.
// Rows are stored once after projection and are read-only afterwards.
type PlanningRepository interface {
	LoadRows(rows []entities.PlanningRow) error
	GetRows() ([]entities.PlanningRow, error)
	GetRowsByReference(reference entities.Reference) ([]entities.PlanningRow, error)
	GetReferences() ([]entities.Reference, error)
}
