package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/shopspring/decimal"
)

// PlanningFileName is the name of the generated planning table
const PlanningFileName = "planning.csv"

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	References int     // Number of references
	Weeks      int     // Number of consecutive weeks per reference
	FirstWeek  int     // Label of the first week
	Clients    int     // Number of distinct clients
	Tightness  float64 // Supply multiplier: below 1 produces shortfalls, above 1 surplus
	OutputDir  string  // Output directory for the generated file
	Encoding   string  // Encoding of the written file, latin1 by default
	Seed       int64   // Random seed for reproducible generation
	Verbose    bool
	Stdout     io.Writer
}

// GenerateCommand writes a synthetic planning table
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Clients <= 0 {
		config.Clients = 3
	}
	if config.FirstWeek <= 0 {
		config.FirstWeek = 1
	}
	if config.Tightness <= 0 {
		config.Tightness = 1
	}
	if config.Encoding == "" {
		config.Encoding = csvrepo.EncodingLatin1
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.References <= 0 || cmd.config.Weeks <= 0 {
		return fmt.Errorf("validation error: references and weeks must be positive")
	}

	out := cmd.config.Stdout
	if out == nil {
		out = os.Stdout
	}

	if cmd.config.Verbose {
		fmt.Fprintf(out, "🔧 Generating %d references x %d weeks for %d clients (tightness %.2f)\n",
			cmd.config.References, cmd.config.Weeks, cmd.config.Clients, cmd.config.Tightness)
		fmt.Fprintf(out, "📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Fprintf(out, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	rows := cmd.GenerateRows()

	writer, err := csvrepo.NewWriter(csvrepo.Options{Delimiter: ';', Encoding: cmd.config.Encoding})
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}

	path := filepath.Join(cmd.config.OutputDir, PlanningFileName)
	if err := writer.WritePlanningFile(path, rows, nil, false); err != nil {
		return fmt.Errorf("failed to generate planning table: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(out, "✅ %d rows written to %s\n", len(rows), path)
	}
	return nil
}

// GenerateRows builds the synthetic table in reference-major, week-minor order.
// Each reference has a steady weekly need with noise, a safety stock around one
// week of need, and supply arriving in batches scaled by Tightness.
func (cmd *GenerateCommand) GenerateRows() []entities.PlanningRow {
	rows := make([]entities.PlanningRow, 0, cmd.config.References*cmd.config.Weeks)

	for r := 0; r < cmd.config.References; r++ {
		reference := entities.Reference(fmt.Sprintf("REF%04d", r+1))
		client := fmt.Sprintf("CLIENT_%02d", cmd.rand.Intn(cmd.config.Clients)+1)
		baseNeed := 20 + cmd.rand.Intn(180)
		safetyStock := decimal.NewFromInt(int64(baseNeed/2 + cmd.rand.Intn(baseNeed/2+1)))
		leadTime := 1 + cmd.rand.Intn(6)
		revenue := decimal.NewFromInt(int64(5+cmd.rand.Intn(500))).Div(decimal.NewFromInt(10))

		// batches cover a few weeks of need, spaced accordingly
		batchWeeks := 2 + cmd.rand.Intn(3)

		for w := 0; w < cmd.config.Weeks; w++ {
			need := baseNeed + cmd.rand.Intn(baseNeed/2+1) - baseNeed/4

			var production int64
			if w%batchWeeks == 0 {
				production = int64(float64(baseNeed*batchWeeks) * cmd.config.Tightness)
			}
			var supply int64
			if cmd.rand.Float64() < 0.25 {
				supply = int64(cmd.rand.Intn(baseNeed + 1))
			}

			lt := leadTime
			rows = append(rows, entities.PlanningRow{
				Reference:         reference,
				Week:              entities.Week(fmt.Sprintf("%d", cmd.config.FirstWeek+w)),
				Client:            client,
				Need:              decimal.NewFromInt(int64(need)),
				AvailableSupply:   decimal.NewFromInt(supply),
				PlannedProduction: decimal.NewFromInt(production),
				SafetyStock:       safetyStock,
				LeadTimeWeeks:     &lt,
				UnitRevenue:       decimal.NewNullDecimal(revenue),
				SourceIndex:       len(rows),
			})
		}
	}

	return rows
}
