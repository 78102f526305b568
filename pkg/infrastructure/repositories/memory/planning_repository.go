package memory

import (
	"fmt"
	"sync"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/domain/repositories"
)

// PlanningRepository provides in-memory storage of the projected planning table
type PlanningRepository struct {
	rows       []entities.PlanningRow
	references []entities.Reference
	byRef      map[entities.Reference][]int
	mutex      sync.RWMutex
}

// NewPlanningRepository creates a new in-memory planning repository
func NewPlanningRepository(expectedRows int) *PlanningRepository {
	return &PlanningRepository{
		rows:  make([]entities.PlanningRow, 0, expectedRows),
		byRef: make(map[entities.Reference][]int),
	}
}

// Verify interface compliance
var _ repositories.PlanningRepository = (*PlanningRepository)(nil)

// LoadRows replaces the stored table with a copy of rows
func (r *PlanningRepository) LoadRows(rows []entities.PlanningRow) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// the stored table stays untouched when any row is rejected
	for _, row := range rows {
		if row.Status == entities.StatusUnclassified {
			return fmt.Errorf("row %s/%s has not been projected", row.Reference, row.Week)
		}
	}

	r.rows = make([]entities.PlanningRow, 0, len(rows))
	r.references = nil
	r.byRef = make(map[entities.Reference][]int)

	for _, row := range rows {
		if _, seen := r.byRef[row.Reference]; !seen {
			r.references = append(r.references, row.Reference)
		}
		r.byRef[row.Reference] = append(r.byRef[row.Reference], len(r.rows))
		r.rows = append(r.rows, row.Clone())
	}
	return nil
}

// GetRows returns a copy of every stored row in projection order
func (r *PlanningRepository) GetRows() ([]entities.PlanningRow, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rows := make([]entities.PlanningRow, len(r.rows))
	for i := range r.rows {
		rows[i] = r.rows[i].Clone()
	}
	return rows, nil
}

// GetRowsByReference returns the week-ordered rows of one reference
func (r *PlanningRepository) GetRowsByReference(reference entities.Reference) ([]entities.PlanningRow, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	indexes, exists := r.byRef[reference]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrReferenceNotFound, reference)
	}

	rows := make([]entities.PlanningRow, 0, len(indexes))
	for _, i := range indexes {
		rows = append(rows, r.rows[i].Clone())
	}
	return rows, nil
}

// GetReferences returns the stored references in projection order
func (r *PlanningRepository) GetReferences() ([]entities.Reference, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	refs := make([]entities.Reference, len(r.references))
	copy(refs, r.references)
	return refs, nil
}

// Len returns the number of stored rows
func (r *PlanningRepository) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.rows)
}
