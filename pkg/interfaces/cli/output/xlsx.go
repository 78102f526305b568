package output

import (
	"fmt"
	"io"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetProjection = "Projection"
	SheetWeekly     = "Synthèse"
	SheetAlerts     = "Alertes"
)

var projectionHeaders = []string{
	"Référence", "Semaine", "Client", "Besoin", "Dispo_TIS", "PDP", "SS",
	"Stock_restant_IDL", "Statut", "Commentaire", "Quantité à lancer",
}

// WriteWorkbook writes the projection workbook to w
func WriteWorkbook(w io.Writer, result *dto.ProjectionResult) error {
	f, err := NewWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds a workbook with the projected rows, the weekly status pivot and the alerts
func NewWorkbook(result *dto.ProjectionResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetProjection); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	alertStyles := make(map[entities.StockStatus]int)
	for status, color := range map[entities.StockStatus]string{
		entities.StatusShortfall:         "#F8CBAD",
		entities.StatusSafetyStockBreach: "#FFE699",
	} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create status style: %w", err)
		}
		alertStyles[status] = style
	}

	if err := writeRowsSheet(f, SheetProjection, result.Rows, headerStyle, alertStyles); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetWeekly); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetWeekly, err)
	}
	if err := writeWeeklySheet(f, summary.WeeklyStatusCounts(result.Rows), headerStyle); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetAlerts); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", SheetAlerts, err)
	}
	var alerts []entities.PlanningRow
	for _, row := range result.Rows {
		if row.IsAlert() {
			alerts = append(alerts, row)
		}
	}
	if err := writeRowsSheet(f, SheetAlerts, alerts, headerStyle, alertStyles); err != nil {
		return nil, err
	}

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRowsSheet(f *excelize.File, sheet string, rows []entities.PlanningRow, headerStyle int, alertStyles map[entities.StockStatus]int) error {
	if err := writeHeader(f, sheet, projectionHeaders, headerStyle); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		values := []interface{}{
			string(row.Reference),
			string(row.Week),
			row.Client,
			number(row.Need),
			number(row.AvailableSupply),
			number(row.PlannedProduction),
			number(row.SafetyStock),
			number(row.RemainingStock),
			row.Status.Label(),
			row.Comment,
			row.ShortQuantity,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
		if style, ok := alertStyles[row.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(9, i+2)
			if err := f.SetCellStyle(sheet, statusCell, statusCell, style); err != nil {
				return err
			}
		}
	}

	widths := []float64{16, 10, 16, 10, 10, 10, 8, 18, 18, 48, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func writeWeeklySheet(f *excelize.File, pivot []summary.WeekStatusCount, headerStyle int) error {
	headers := []string{"Semaine"}
	for _, status := range entities.AllStatuses {
		headers = append(headers, status.Label())
	}
	if err := writeHeader(f, SheetWeekly, headers, headerStyle); err != nil {
		return fmt.Errorf("failed to write %s header: %w", SheetWeekly, err)
	}

	for i, week := range pivot {
		values := []interface{}{string(week.Week)}
		for _, status := range entities.AllStatuses {
			values = append(values, week.Count(status))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetWeekly, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", SheetWeekly, i+1, err)
		}
	}
	return f.SetColWidth(SheetWeekly, "A", "D", 20)
}

// number converts a quantity for a spreadsheet cell
func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
