package csv

import (
	"fmt"
	"io"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Canonical planning columns
const (
	colReference         = "reference"
	colWeek              = "week"
	colClient            = "client"
	colNeed              = "need"
	colAvailableSupply   = "available_supply"
	colPlannedProduction = "planned_production"
	colSafetyStock       = "safety_stock"
	colIDLAvailable      = "idl_available"
	colLeadTime          = "lead_time_weeks"
	colUnitRevenue       = "unit_revenue"
	colDerived           = "derived"
)

// planningAliases maps normalized header names to canonical columns
var planningAliases = map[string]string{
	"reference":          colReference,
	"ref":                colReference,
	"semaine":            colWeek,
	"week":               colWeek,
	"client":             colClient,
	"besoin":             colNeed,
	"need":               colNeed,
	"dispo_tis":          colAvailableSupply,
	"available_supply":   colAvailableSupply,
	"pdp":                colPlannedProduction,
	"planned_production": colPlannedProduction,
	"ss":                 colSafetyStock,
	"safety_stock":       colSafetyStock,
	"dispo_idl":          colIDLAvailable,
	"idl_available":      colIDLAvailable,
	"leadtime_semaine":   colLeadTime,
	"lead_time_weeks":    colLeadTime,
	"ca_unitaire":        colUnitRevenue,
	"unit_revenue":       colUnitRevenue,
	// engine-owned columns are recomputed, never read
	"stock_restant_idl": colDerived,
	"remaining_stock":   colDerived,
	"statut":            colDerived,
	"status":            colDerived,
	"commentaire":       colDerived,
	"comment":           colDerived,
}

var requiredPlanningColumns = []struct {
	canonical string
	label     string
}{
	{colReference, "Référence"},
	{colWeek, "Semaine"},
	{colClient, "Client"},
	{colNeed, "Besoin"},
	{colAvailableSupply, "Dispo_TIS"},
	{colPlannedProduction, "PDP"},
	{colSafetyStock, "SS"},
}

// LoadReport describes what the loader recovered from
type LoadReport struct {
	Rows int
	// CoercedCells counts non-blank numeric cells that could not be parsed and became 0
	CoercedCells int
	// MissingOptional lists optional columns absent from the header
	MissingOptional []string
	ExtraColumns    []string
}

// LoadPlanning loads the planning table from a delimited file
func (l *Loader) LoadPlanning(filename string) (*entities.PlanningTable, *LoadReport, error) {
	file, err := openFile(filename, "planning")
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	table, report, err := l.ReadPlanning(file)
	if err != nil {
		return nil, nil, fmt.Errorf("planning file %s: %w", filename, err)
	}
	return table, report, nil
}

// ReadPlanning parses a planning table. Numeric cells that fail to parse become 0;
// rows are kept in input order with SourceIndex set.
func (l *Loader) ReadPlanning(r io.Reader) (*entities.PlanningTable, *LoadReport, error) {
	records, err := l.readRecords(r)
	if err != nil {
		return nil, nil, err
	}

	header := records[0]
	index := make(map[string]int)
	extraIndex := make(map[string]int)
	report := &LoadReport{}

	for i, name := range header {
		canonical, known := planningAliases[normalizeHeader(name)]
		if !known {
			if name == "" {
				continue
			}
			if _, dup := extraIndex[name]; !dup {
				extraIndex[name] = i
				report.ExtraColumns = append(report.ExtraColumns, name)
			}
			continue
		}
		if _, dup := index[canonical]; !dup {
			index[canonical] = i
		}
	}

	for _, col := range requiredPlanningColumns {
		if _, ok := index[col.canonical]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, col.label)
		}
	}
	for _, optional := range []struct{ canonical, label string }{
		{colIDLAvailable, "DISPO_IDL"},
		{colLeadTime, "LeadTime_Semaine"},
		{colUnitRevenue, "CA_unitaire"},
	} {
		if _, ok := index[optional.canonical]; !ok {
			report.MissingOptional = append(report.MissingOptional, optional.label)
		}
	}

	table := &entities.PlanningTable{
		Rows:         make([]entities.PlanningRow, 0, len(records)-1),
		ExtraColumns: append([]string(nil), report.ExtraColumns...),
	}

	for i, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		lineNo := i + 2
		p := &cellParser{loader: l, line: lineNo, report: report}

		row := entities.PlanningRow{
			Reference:         entities.Reference(strings.TrimSpace(cell(record, index[colReference]))),
			Week:              entities.Week(strings.TrimSpace(cell(record, index[colWeek]))),
			Client:            strings.TrimSpace(cell(record, index[colClient])),
			Need:              p.decimal(colNeed, cell(record, index[colNeed])),
			AvailableSupply:   p.decimal(colAvailableSupply, cell(record, index[colAvailableSupply])),
			PlannedProduction: p.decimal(colPlannedProduction, cell(record, index[colPlannedProduction])),
			SafetyStock:       p.decimal(colSafetyStock, cell(record, index[colSafetyStock])),
			SourceIndex:       len(table.Rows),
		}

		if idx, ok := index[colIDLAvailable]; ok {
			row.IDLAvailable = p.nullDecimal(colIDLAvailable, cell(record, idx))
		}
		if idx, ok := index[colUnitRevenue]; ok {
			row.UnitRevenue = p.nullDecimal(colUnitRevenue, cell(record, idx))
		}
		if idx, ok := index[colLeadTime]; ok {
			row.LeadTimeWeeks = p.weeks(colLeadTime, cell(record, idx))
		}
		if len(extraIndex) > 0 {
			row.Extra = make(map[string]string, len(extraIndex))
			for name, idx := range extraIndex {
				row.Extra[name] = cell(record, idx)
			}
		}

		table.Rows = append(table.Rows, row)
	}

	report.Rows = len(table.Rows)
	l.logger.Debug("planning table loaded",
		zap.Int("rows", report.Rows),
		zap.Int("coerced_cells", report.CoercedCells),
		zap.Strings("extra_columns", report.ExtraColumns),
		zap.Strings("missing_optional", report.MissingOptional))

	return table, report, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// Figures beyond these bounds are coerced like unparseable text: a cell such as
// "1e900000000" would otherwise be rescaled into a gigantic integer by the first addition.
const (
	maxCellExponent = 18
	maxCellDigits   = 30
)

// cellParser coerces numeric cells of one line and records every recovery
type cellParser struct {
	loader *Loader
	line   int
	report *LoadReport
}

func (p *cellParser) parse(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if p.loader.options.DecimalComma {
		s = strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxCellExponent || exp < -maxCellExponent || d.NumDigits() > maxCellDigits {
		return decimal.Zero, false
	}
	return d, true
}

func (p *cellParser) coerced(column, raw string) {
	p.report.CoercedCells++
	p.loader.logger.Debug("numeric cell coerced to 0",
		zap.Int("line", p.line),
		zap.String("column", column),
		zap.String("value", raw))
}

// decimal parses a required figure; blank or invalid cells become 0
func (p *cellParser) decimal(column, raw string) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, ok := p.parse(raw)
	if !ok {
		p.coerced(column, raw)
	}
	return d
}

// nullDecimal parses an optional figure; blank or invalid cells stay null
func (p *cellParser) nullDecimal(column, raw string) decimal.NullDecimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}
	}
	d, ok := p.parse(raw)
	if !ok {
		p.coerced(column, raw)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// weeks parses a whole number of weeks; "3.0" is accepted
func (p *cellParser) weeks(column, raw string) *int {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, ok := p.parse(raw)
	if !ok || !d.Equal(d.Truncate(0)) {
		p.coerced(column, raw)
		return nil
	}
	n := int(d.IntPart())
	return &n
}
