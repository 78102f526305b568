package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/projection"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"go.uber.org/zap"
)

// Config holds configuration for the project command
type Config struct {
	InputFile string
	CSV       csvrepo.Options
	Workers   int
	OutputDir string
	Format    string
	// Filters; an empty list selects every value
	References []string
	Clients    []string
	Weeks      []string
	Verbose    bool
	// Stdout receives progress and report text, os.Stdout when nil
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Filter returns the row filter of the configured selections
func (c Config) Filter() summary.RowFilter {
	return summary.RowFilter{
		References: selection(c.References),
		Clients:    selection(c.Clients),
		Weeks:      selection(c.Weeks),
	}
}

func selection(values []string) summary.Selection {
	if len(values) == 0 {
		return summary.SelectAll()
	}
	return summary.Select(values...)
}

// ProjectCommand loads a planning table, projects it and writes the report
type ProjectCommand struct {
	config Config
	logger *zap.Logger
}

// NewProjectCommand creates a new project command with the given configuration
func NewProjectCommand(config Config, logger *zap.Logger) *ProjectCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectCommand{
		config: config,
		logger: logger,
	}
}

// Run holds what a load-and-project pass produced
type Run struct {
	Result  *dto.ProjectionResult
	Journal *events.InMemoryJournal
	Load    *csvrepo.LoadReport
	Elapsed time.Duration
}

// Execute runs the project command
func (c *ProjectCommand) Execute(ctx context.Context) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if c.config.Verbose {
		c.printHeader()
	}

	run, err := loadAndProject(ctx, c.config, c.logger)
	if err != nil {
		return err
	}

	result := run.Result
	filter := c.config.Filter()
	if len(c.config.References)+len(c.config.Clients)+len(c.config.Weeks) > 0 {
		filtered := *result
		filtered.Rows = summary.Filter(result.Rows, filter)
		filtered.References = summary.Options(filtered.Rows).References
		filtered.Shortfalls = len(summary.ByStatus(filtered.Rows, entities.StatusShortfall))
		filtered.Breaches = len(summary.ByStatus(filtered.Rows, entities.StatusSafetyStockBreach))
		result = &filtered

		if c.config.Verbose {
			fmt.Fprintf(c.config.stdout(), "🔍 Filter kept %d of %d rows\n\n", len(result.Rows), len(run.Result.Rows))
		}
	}

	outputConfig := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   run.Elapsed,
		InputFile: c.config.InputFile,
		CSV:       c.config.CSV,
		Stdout:    c.config.Stdout,
	}

	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintln(c.config.stdout(), "🏁 Projection complete!")
	}

	return nil
}

// loadAndProject is shared by the project and serve commands
func loadAndProject(ctx context.Context, config Config, logger *zap.Logger) (*Run, error) {
	out := config.stdout()

	if config.Verbose {
		fmt.Fprintln(out, "📂 Loading planning table...")
	}

	loader, err := csvrepo.NewLoader(config.CSV, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid input options: %w", err)
	}

	table, report, err := loader.LoadPlanning(config.InputFile)
	if err != nil {
		return nil, fmt.Errorf("error loading planning table: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(out, "✅ Data loaded successfully:\n")
		fmt.Fprintf(out, "  Rows: %d\n", report.Rows)
		fmt.Fprintf(out, "  Coerced cells: %d\n", report.CoercedCells)
		if len(report.MissingOptional) > 0 {
			fmt.Fprintf(out, "  Missing optional columns: %v\n", report.MissingOptional)
		}
		if len(report.ExtraColumns) > 0 {
			fmt.Fprintf(out, "  Extra columns: %v\n", report.ExtraColumns)
		}
		fmt.Fprintln(out)
	}

	journal := events.NewInMemoryJournal(logger)
	if err := journal.Subscribe(events.AlertEventTypes, events.NewAlertLogger(logger)); err != nil {
		return nil, fmt.Errorf("failed to subscribe alert logger: %w", err)
	}

	service := projection.NewProjectionServiceWithConfig(
		projection.EngineConfig{Workers: config.Workers},
		journal,
		logger,
	)

	if config.Verbose {
		fmt.Fprintln(out, "🔄 Projecting remaining stock...")
	}

	startTime := time.Now()
	result, err := service.Project(ctx, table)
	elapsed := time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("error running projection: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(out, "✅ Projection completed in %v (%d alerts: %d shortfalls, %d safety stock breaches)\n\n",
			elapsed, result.AlertCount(), result.Shortfalls, result.Breaches)
	}

	return &Run{
		Result:  result,
		Journal: journal,
		Load:    report,
		Elapsed: elapsed,
	}, nil
}

// validateInputs validates the command configuration
func (c *ProjectCommand) validateInputs() error {
	if c.config.InputFile == "" {
		return fmt.Errorf("must specify an input planning file")
	}
	if _, err := os.Stat(c.config.InputFile); os.IsNotExist(err) {
		return fmt.Errorf("planning file not found: %s", c.config.InputFile)
	}
	if c.config.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	return nil
}

// printHeader prints the command header information
func (c *ProjectCommand) printHeader() {
	out := c.config.stdout()
	fmt.Fprintf(out, "🚀 Jelo stock projection\n")
	fmt.Fprintf(out, "Input file: %s\n", c.config.InputFile)
	fmt.Fprintf(out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(out)
}
