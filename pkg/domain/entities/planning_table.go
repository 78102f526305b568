package entities

// PlanningTable is the normalized planning table produced by a loader
type PlanningTable struct {
	Rows []PlanningRow
	// ExtraColumns lists carried-through columns in input order
	ExtraColumns []string
}

// Clone returns a deep copy of the table
func (t *PlanningTable) Clone() *PlanningTable {
	c := &PlanningTable{
		Rows:         make([]PlanningRow, len(t.Rows)),
		ExtraColumns: append([]string(nil), t.ExtraColumns...),
	}
	for i := range t.Rows {
		c.Rows[i] = t.Rows[i].Clone()
	}
	return c
}
