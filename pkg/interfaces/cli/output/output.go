package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "xlsx", "svg", "html"}

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	InputFile string
	// CSV options for the csv format; ';' and UTF-8 when zero
	CSV csvrepo.Options
	// Stdout receives output when no directory is set, os.Stdout when nil
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Report is the serialized summary of a projection run
type Report struct {
	RunID        string                    `json:"run_id"`
	ComputedAt   time.Time                 `json:"computed_at"`
	KPIs         summary.KPIs              `json:"kpis"`
	WeeklyStatus []summary.WeekStatusCount `json:"weekly_status"`
	Rows         []dto.RowView             `json:"rows"`
}

// NewReport derives the report of a projection result
func NewReport(result *dto.ProjectionResult) Report {
	return Report{
		RunID:        result.RunID,
		ComputedAt:   result.ComputedAt,
		KPIs:         summary.ComputeKPIs(result.Rows),
		WeeklyStatus: summary.WeeklyStatusCounts(result.Rows),
		Rows:         dto.NewRowViews(result.Rows),
	}
}

// Generate creates output in the specified format
func Generate(result *dto.ProjectionResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "xlsx":
		return generateXLSXOutput(result, config)
	case "svg":
		return generateSVGOutput(result, config)
	case "html":
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// writeOutput writes data to stdout, or to filename inside the output directory when one is set
func writeOutput(config Config, filename string, write func(io.Writer) error) error {
	if config.OutputDir == "" {
		return write(config.stdout())
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(config.OutputDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 Results saved to: %s\n", path)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.ProjectionResult, config Config) error {
	jsonData, err := json.MarshalIndent(NewReport(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return writeOutput(config, "projection.json", func(w io.Writer) error {
		_, err := fmt.Fprintln(w, string(jsonData))
		return err
	})
}

// generateCSVOutput writes the projected table in the loader's delimited layout
func generateCSVOutput(result *dto.ProjectionResult, config Config) error {
	options := config.CSV
	if options.Encoding == "" {
		options.Encoding = csvrepo.EncodingUTF8
	}
	writer, err := csvrepo.NewWriter(options)
	if err != nil {
		return fmt.Errorf("invalid CSV options: %w", err)
	}

	return writeOutput(config, "projection.csv", func(w io.Writer) error {
		return writer.WritePlanning(w, result.Rows, result.ExtraColumns, true)
	})
}

// generateSVGOutput renders the stock chart
func generateSVGOutput(result *dto.ProjectionResult, config Config) error {
	series := summary.StockSeries(result.Rows)
	svg := NewStockChart(series).GenerateSVG(series)

	return writeOutput(config, "stock_chart.svg", func(w io.Writer) error {
		_, err := io.WriteString(w, svg)
		return err
	})
}

// generateXLSXOutput writes the workbook; a directory is required because the format is binary
func generateXLSXOutput(result *dto.ProjectionResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}

	return writeOutput(config, "projection.xlsx", func(w io.Writer) error {
		return WriteWorkbook(w, result)
	})
}
