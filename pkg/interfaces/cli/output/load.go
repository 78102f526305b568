package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/application/services/callload"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var overloadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)

// GenerateLoad writes the call-load table as text or json
func GenerateLoad(load *callload.LoadTable, config Config) error {
	switch config.Format {
	case "text", "":
		return writeOutput(config, "charge.txt", func(w io.Writer) error {
			return RenderLoadText(w, load)
		})
	case "json":
		return writeOutput(config, "charge.json", func(w io.Writer) error {
			data, err := json.MarshalIndent(load, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, err = w.Write(append(data, '\n'))
			return err
		})
	default:
		return fmt.Errorf("unsupported load format: %s (expected: text or json)", config.Format)
	}
}

// RenderLoadText prints one row per family with the load ratio of every week as a percentage.
// Ratios above 100% are highlighted.
func RenderLoadText(w io.Writer, load *callload.LoadTable) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📈 Charge appels planifiés / appels client") + "\n")

	if len(load.Families) == 0 {
		b.WriteString("Aucune famille à afficher\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	headers := []string{"Famille"}
	for _, week := range load.Weeks {
		headers = append(headers, string(week))
	}

	hundred := decimal.NewFromInt(100)
	data := make([][]string, 0, len(load.Families))
	for _, family := range load.Families {
		row := []string{family.Family}
		for _, week := range family.Weeks {
			row = append(row, week.Load.Mul(hundred).StringFixed(1)+"%")
		}
		data = append(data, row)
	}

	t := newTable().
		Headers(headers...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 || row < 0 || row >= len(load.Families) {
				return cellStyle
			}
			if load.Families[row].Weeks[col-1].Load.GreaterThan(decimal.NewFromInt(1)) {
				return overloadStyle.Padding(0, 1).Align(lipgloss.Right)
			}
			return cellStyle.Align(lipgloss.Right)
		})

	b.WriteString(t.String() + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
