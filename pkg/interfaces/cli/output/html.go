package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{
		"statusClass": statusClass,
		"count":       func(w summary.WeekStatusCount, s entities.StockStatus) int { return w.Count(s) },
	}).ParseFS(templateFS, "templates/report.html"),
)

// FilterState is the current selection of one filter dimension, for rendering the form
type FilterState struct {
	Name     string
	Label    string
	All      bool
	Options  []string
	Selected map[string]bool
}

// ReportPage contains all data for rendering the HTML report
type ReportPage struct {
	Title       string
	GeneratedAt string
	RunID       string
	KPIs        summary.KPIs
	Statuses    []entities.StockStatus
	Weekly      []summary.WeekStatusCount
	Rows        []dto.RowView
	Alerts      int
	ChartSVG    template.HTML

	// Interactive pages show the filter form and export links
	Interactive bool
	Filters     []FilterState
	Query       template.URL
}

// NewReportPage builds a static page from a projection result
func NewReportPage(result *dto.ProjectionResult) *ReportPage {
	series := summary.StockSeries(result.Rows)
	kpis := summary.ComputeKPIs(result.Rows)
	return &ReportPage{
		Title:       "Projection du stock",
		GeneratedAt: result.ComputedAt.Format("2006-01-02 15:04:05"),
		RunID:       result.RunID,
		KPIs:        kpis,
		Statuses:    entities.AllStatuses,
		Weekly:      summary.WeeklyStatusCounts(result.Rows),
		Rows:        dto.NewRowViews(result.Rows),
		Alerts:      kpis.AlertRows,
		ChartSVG:    template.HTML(NewStockChart(series).GenerateSVG(series)),
	}
}

// WithFilters turns the page into the interactive dashboard view
func (p *ReportPage) WithFilters(options summary.FilterOptions, filter summary.RowFilter, query url.Values) *ReportPage {
	p.Interactive = true
	p.Query = template.URL(query.Encode())
	p.Filters = []FilterState{
		newFilterState("reference", "Référence", referenceStrings(options.References), filter.References),
		newFilterState("client", "Client", options.Clients, filter.Clients),
		newFilterState("week", "Semaine", weekStrings(options.Weeks), filter.Weeks),
	}
	return p
}

func newFilterState(name, label string, options []string, selection summary.Selection) FilterState {
	state := FilterState{
		Name:     name,
		Label:    label,
		All:      selection.All,
		Options:  options,
		Selected: make(map[string]bool, len(selection.Values)),
	}
	for _, v := range selection.Values {
		state.Selected[v] = true
	}
	return state
}

func referenceStrings(refs []entities.Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	return out
}

func weekStrings(weeks []entities.Week) []string {
	out := make([]string, len(weeks))
	for i, w := range weeks {
		out[i] = string(w)
	}
	return out
}

// statusClass returns the CSS class of a status
func statusClass(status entities.StockStatus) string {
	switch status {
	case entities.StatusShortfall:
		return "shortfall"
	case entities.StatusSafetyStockBreach:
		return "breach"
	case entities.StatusOK:
		return "ok"
	default:
		return ""
	}
}

// RenderHTML executes the report template
func RenderHTML(w io.Writer, page *ReportPage) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, page); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// formatDuration formats a time duration into human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// generateHTMLOutput creates a standalone HTML report
func generateHTMLOutput(result *dto.ProjectionResult, config Config) error {
	page := NewReportPage(result)
	if config.Elapsed > 0 {
		page.GeneratedAt += " (" + formatDuration(config.Elapsed) + ")"
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "  📝 Rendering HTML report with %d rows...\n", len(page.Rows))
	}

	return writeOutput(config, "projection.html", func(w io.Writer) error {
		return RenderHTML(w, page)
	})
}
