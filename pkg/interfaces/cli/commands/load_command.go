package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/LotfiJL/Jelo/pkg/application/services/callload"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"go.uber.org/zap"
)

// LoadConfig holds configuration for the call-load command
type LoadConfig struct {
	InputFile string
	CSV       csvrepo.Options
	Format    string
	OutputDir string
	Verbose   bool
	Stdout    io.Writer
}

// LoadCommand computes the planned/client call ratio of a call-off schedule
type LoadCommand struct {
	config LoadConfig
	logger *zap.Logger
}

// NewLoadCommand creates a new call-load command
func NewLoadCommand(config LoadConfig, logger *zap.Logger) *LoadCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadCommand{
		config: config,
		logger: logger,
	}
}

// Execute runs the call-load command
func (c *LoadCommand) Execute(ctx context.Context) error {
	if c.config.InputFile == "" {
		return fmt.Errorf("validation error: must specify an input call file")
	}

	out := c.config.Stdout
	if out == nil {
		out = os.Stdout
	}

	loader, err := csvrepo.NewLoader(c.config.CSV, c.logger)
	if err != nil {
		return fmt.Errorf("invalid input options: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "📂 Loading call schedule %s...\n", c.config.InputFile)
	}

	schedule, report, err := loader.LoadCalls(c.config.InputFile)
	if err != nil {
		return fmt.Errorf("error loading call schedule: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(out, "✅ %d lines over %d weeks (%d coerced cells)\n\n",
			len(schedule.Lines), len(schedule.Weeks), report.CoercedCells)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	load := callload.NewLoadService(c.logger).Compute(schedule.Weeks, schedule.Lines)

	err = output.GenerateLoad(load, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		InputFile: c.config.InputFile,
		Stdout:    c.config.Stdout,
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return nil
}
