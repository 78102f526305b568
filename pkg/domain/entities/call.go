package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CallType represents the kind of call-off line in a customer schedule
type CallType int

const (
	OtherCall CallType = iota
	ClientCall
	PlannedCall
)

// String method for CallType enum
func (c CallType) String() string {
	switch c {
	case ClientCall:
		return "Appel"
	case PlannedCall:
		return "Appel planifié"
	default:
		return "Autre"
	}
}

// ParseCallType maps a raw "Type d'appel" cell to a CallType.
// Exports in code page 850 read as Latin-1 turn "é" into U+0082.
func ParseCallType(s string) CallType {
	normalized := strings.TrimSpace(strings.ReplaceAll(s, "\u0082", "é"))
	switch strings.ToLower(normalized) {
	case "appel":
		return ClientCall
	case "appel planifié", "appel planifie":
		return PlannedCall
	default:
		return OtherCall
	}
}

// CallLine is one row of the call-off schedule: a family, a call type and weekly volumes
type CallLine struct {
	Family  string
	Type    CallType
	RawType string
	Volumes map[Week]decimal.Decimal
}
