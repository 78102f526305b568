package main

import (
	"context"
	"fmt"
	"os"

	"github.com/LotfiJL/Jelo/pkg/application/services/projection"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Two references over four weeks: a valve that runs short and a pump that stays covered
	table := &entities.PlanningTable{}
	addReference(table, "VALVE_DN50", "ACME", 5,
		[]int64{10, 5, 8, 12}, // need
		[]int64{0, 20, 0, 0},  // available supply
		[]int64{0, 0, 10, 0},  // planned production
	)
	addReference(table, "PUMP_P200", "GLOBEX", 4,
		[]int64{0, 6, 6, 6},
		[]int64{30, 0, 0, 0},
		[]int64{0, 0, 0, 10},
	)

	journal := events.NewInMemoryJournal(nil)
	service := projection.NewProjectionServiceWithConfig(projection.EngineConfig{Workers: 2}, journal, zap.NewNop())

	fmt.Println("🚀 Projecting remaining stock...")
	result, err := service.Project(ctx, table)
	if err != nil {
		fmt.Printf("❌ Projection failed: %v\n", err)
		return
	}

	fmt.Println("📊 Projection Results:")
	for _, row := range result.Rows {
		fmt.Printf("  %-11s S%-2s remaining %5s  %s  %s\n",
			row.Reference, row.Week, row.RemainingStock, row.Status.Label(), row.Comment)
	}
	fmt.Println()

	kpis := summary.ComputeKPIs(result.Rows)
	fmt.Printf("Total need: %s, alerts: %d over %d references\n\n", kpis.TotalNeed, kpis.AlertRows, kpis.References)

	alerts, _ := journal.ReadAll(0)
	fmt.Printf("🔔 %d journal events\n\n", len(alerts))

	// The same report the CLI prints
	if err := output.RenderText(os.Stdout, result, output.Config{}); err != nil {
		fmt.Printf("❌ Rendering failed: %v\n", err)
	}
}

func addReference(table *entities.PlanningTable, ref entities.Reference, client string, safetyStock int64, need, supply, production []int64) {
	for i := range need {
		row, err := entities.NewPlanningRow(
			ref,
			entities.Week(fmt.Sprintf("%d", i+1)),
			client,
			decimal.NewFromInt(need[i]),
			decimal.NewFromInt(supply[i]),
			decimal.NewFromInt(production[i]),
			decimal.NewFromInt(safetyStock),
		)
		if err != nil {
			panic(err)
		}
		row.SourceIndex = len(table.Rows)
		table.Rows = append(table.Rows, *row)
	}
}
