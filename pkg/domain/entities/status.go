package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StockStatus represents the alert level of a projected row
type StockStatus int

const (
	StatusUnclassified StockStatus = iota
	StatusOK
	StatusSafetyStockBreach
	StatusShortfall
)

// AllStatuses lists the classified statuses in increasing severity
var AllStatuses = []StockStatus{StatusOK, StatusSafetyStockBreach, StatusShortfall}

// String method for StockStatus enum
func (s StockStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusSafetyStockBreach:
		return "SafetyStockBreach"
	case StatusShortfall:
		return "Shortfall"
	default:
		return "Unclassified"
	}
}

// Label returns the dashboard label of the status
func (s StockStatus) Label() string {
	switch s {
	case StatusOK:
		return "✅ OK"
	case StatusSafetyStockBreach:
		return "⚠️ SS non couvert"
	case StatusShortfall:
		return "⛔ Arrêt client"
	default:
		return "?"
	}
}

// Severity orders statuses, higher is worse
func (s StockStatus) Severity() int {
	return int(s)
}

// MarshalJSON encodes the status by name
func (s StockStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name
func (s *StockStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStockStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStockStatus accepts a status name or its dashboard label
func ParseStockStatus(s string) (StockStatus, error) {
	trimmed := strings.TrimSpace(s)
	for _, status := range AllStatuses {
		if strings.EqualFold(trimmed, status.String()) || trimmed == status.Label() {
			return status, nil
		}
	}
	return StatusUnclassified, fmt.Errorf("invalid status: %s (expected: OK, SafetyStockBreach or Shortfall)", s)
}
