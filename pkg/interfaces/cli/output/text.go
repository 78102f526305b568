package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	statusStyles = map[entities.StockStatus]lipgloss.Style{
		entities.StatusOK:                lipgloss.NewStyle().Foreground(lipgloss.Color("#2CA02C")),
		entities.StatusSafetyStockBreach: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F1C")),
		entities.StatusShortfall:         lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.ProjectionResult, config Config) error {
	return writeOutput(config, "projection.txt", func(w io.Writer) error {
		return RenderText(w, result, config)
	})
}

// RenderText writes the KPIs, the weekly status pivot and the projected rows as terminal tables
func RenderText(w io.Writer, result *dto.ProjectionResult, config Config) error {
	kpis := summary.ComputeKPIs(result.Rows)

	var b strings.Builder
	b.WriteString(titleStyle.Render("📊 Projection du stock") + "\n\n")
	if config.InputFile != "" {
		fmt.Fprintf(&b, "Fichier:             %s\n", config.InputFile)
	}
	fmt.Fprintf(&b, "Exécution:           %s\n", result.RunID)
	if config.Elapsed > 0 {
		fmt.Fprintf(&b, "Durée:               %v\n", config.Elapsed)
	}
	fmt.Fprintf(&b, "Références:          %d\n", kpis.References)
	fmt.Fprintf(&b, "Besoin total:        %s\n", kpis.TotalNeed.String())
	fmt.Fprintf(&b, "Stock restant total: %d\n", kpis.TotalRemaining)
	fmt.Fprintf(&b, "Alertes:             %d (%d arrêts client, %d SS non couverts)\n\n",
		kpis.AlertRows, result.Shortfalls, result.Breaches)

	b.WriteString(titleStyle.Render("📅 Statuts par semaine") + "\n")
	b.WriteString(renderWeeklyTable(summary.WeeklyStatusCounts(result.Rows)) + "\n\n")

	if len(result.Rows) > 0 {
		b.WriteString(titleStyle.Render("📋 Détail") + "\n")
		b.WriteString(renderRowsTable(result.Rows) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle)
}

func renderWeeklyTable(pivot []summary.WeekStatusCount) string {
	headers := []string{"Semaine"}
	for _, status := range entities.AllStatuses {
		headers = append(headers, status.Label())
	}

	rows := make([][]string, 0, len(pivot))
	for _, week := range pivot {
		row := []string{string(week.Week)}
		for _, status := range entities.AllStatuses {
			row = append(row, strconv.Itoa(week.Count(status)))
		}
		rows = append(rows, row)
	}

	return newTable().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col > 0 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		}).
		String()
}

func renderRowsTable(rows []entities.PlanningRow) string {
	const statusCol = 7
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		data = append(data, []string{
			string(row.Reference),
			string(row.Week),
			row.Client,
			row.Need.String(),
			row.SupplyForNextWeek().String(),
			row.SafetyStock.String(),
			row.RemainingStock.String(),
			row.Status.Label(),
			row.Comment,
		})
	}

	return newTable().
		Headers("Référence", "Semaine", "Client", "Besoin", "PDP+Dispo", "SS", "Stock restant", "Statut", "Commentaire").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				if style, ok := statusStyles[rows[row].Status]; ok {
					return style.Padding(0, 1)
				}
			}
			if col >= 3 && col <= 6 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		}).
		String()
}
