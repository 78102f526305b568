package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Writer writes planning tables in the same delimited layout the Loader reads
type Writer struct {
	options Options
	loader  *Loader
}

// NewWriter creates a writer using the delimiter and encoding of options
func NewWriter(options Options) (*Writer, error) {
	loader, err := NewLoader(options, nil)
	if err != nil {
		return nil, err
	}
	return &Writer{options: loader.options, loader: loader}, nil
}

// PlanningHeader returns the column labels written for a table.
// Optional columns appear only when at least one row carries a value.
func PlanningHeader(rows []entities.PlanningRow, extraColumns []string, derived bool) []string {
	header := []string{"Référence", "Semaine", "Client", "Besoin", "Dispo_TIS", "PDP", "SS"}
	idl, lead, revenue := optionalPresence(rows)
	if idl {
		header = append(header, "DISPO_IDL")
	}
	if lead {
		header = append(header, "LeadTime_Semaine")
	}
	if revenue {
		header = append(header, "CA_unitaire")
	}
	header = append(header, extraColumns...)
	if derived {
		header = append(header, "Stock_restant_IDL", "Statut", "Commentaire")
	}
	return header
}

// PlanningRecords returns the header followed by one record per row
func PlanningRecords(rows []entities.PlanningRow, extraColumns []string, derived bool) [][]string {
	idl, lead, revenue := optionalPresence(rows)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, PlanningHeader(rows, extraColumns, derived))
	for _, row := range rows {
		records = append(records, planningRecord(row, extraColumns, idl, lead, revenue, derived))
	}
	return records
}

func planningRecord(row entities.PlanningRow, extraColumns []string, idl, lead, revenue, derived bool) []string {
	record := []string{
		string(row.Reference),
		string(row.Week),
		row.Client,
		row.Need.String(),
		row.AvailableSupply.String(),
		row.PlannedProduction.String(),
		row.SafetyStock.String(),
	}
	if idl {
		record = append(record, nullString(row.IDLAvailable))
	}
	if lead {
		if row.LeadTimeWeeks != nil {
			record = append(record, strconv.Itoa(*row.LeadTimeWeeks))
		} else {
			record = append(record, "")
		}
	}
	if revenue {
		record = append(record, nullString(row.UnitRevenue))
	}
	for _, name := range extraColumns {
		record = append(record, row.Extra[name])
	}
	if derived {
		record = append(record, row.RemainingStock.String(), row.Status.Label(), row.Comment)
	}
	return record
}

func optionalPresence(rows []entities.PlanningRow) (idl, lead, revenue bool) {
	for i := range rows {
		idl = idl || rows[i].IDLAvailable.Valid
		lead = lead || rows[i].LeadTimeWeeks != nil
		revenue = revenue || rows[i].UnitRevenue.Valid
	}
	return idl, lead, revenue
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// WritePlanning writes the header and every row; derived adds the projection columns
func (w *Writer) WritePlanning(out io.Writer, rows []entities.PlanningRow, extraColumns []string, derived bool) error {
	// characters outside the target charset (status emoji in Latin-1) are substituted
	encoded := transform.NewWriter(out, encoding.ReplaceUnsupported(w.loader.encoding.NewEncoder()))

	writer := csv.NewWriter(encoded)
	writer.Comma = w.options.Delimiter

	for i, record := range PlanningRecords(rows, extraColumns, derived) {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return encoded.Close()
}

// WritePlanningFile writes the table to filename
func (w *Writer) WritePlanningFile(filename string, rows []entities.PlanningRow, extraColumns []string, derived bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer file.Close()

	if err := w.WritePlanning(file, rows, extraColumns, derived); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
