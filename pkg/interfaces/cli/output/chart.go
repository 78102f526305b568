package output

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
)

// linePalette colours reference lines in order of appearance
var linePalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#9467bd", "#8c564b",
	"#e377c2", "#7f7f7f", "#bcbd22", "#17becf", "#393b79",
}

// StockChart renders remaining stock per reference over weeks as an SVG line chart
type StockChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	Title        string
}

// NewStockChart creates a chart sized for the series
func NewStockChart(series summary.Series) *StockChart {
	width := 900
	if n := len(series.Weeks); n > 12 {
		width = 900 + (n-12)*40
	}
	return &StockChart{
		Width:        width,
		Height:       420,
		MarginLeft:   70,
		MarginTop:    50,
		MarginRight:  170,
		MarginBottom: 60,
		Title:        "Évolution du stock restant par référence",
	}
}

// yRange returns the value bounds of the chart, always including 0 and the threshold
func (sc *StockChart) yRange(series summary.Series) (float64, float64) {
	lo := math.Min(0, series.Threshold.InexactFloat64())
	hi := math.Max(0, series.Threshold.InexactFloat64())
	for _, line := range series.Lines {
		for _, p := range line.Points {
			v := p.Remaining.InexactFloat64()
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// GenerateSVG creates an SVG representation of the series
func (sc *StockChart) GenerateSVG(series summary.Series) string {
	if len(series.Lines) == 0 || len(series.Weeks) == 0 {
		return sc.generateEmptyChart()
	}

	var svg strings.Builder

	svg.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		sc.Width, sc.Height, sc.Width, sc.Height))
	svg.WriteString(`<defs><style>`)
	svg.WriteString(`.axis-label { font-family: Arial, sans-serif; font-size: 11px; fill: #555; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 15px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.legend { font-family: Arial, sans-serif; font-size: 11px; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.zero-line { stroke: #333; stroke-width: 1; }`)
	svg.WriteString(`.threshold { stroke: #d62728; stroke-width: 1.5; stroke-dasharray: 6 4; }`)
	svg.WriteString(`</style></defs>`)

	svg.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, sc.Width, sc.Height))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="28" class="title">%s</text>`, sc.MarginLeft, html.EscapeString(sc.Title)))

	lo, hi := sc.yRange(series)
	xOf := sc.xScale(len(series.Weeks))
	yOf := func(v float64) float64 {
		plotHeight := float64(sc.Height - sc.MarginTop - sc.MarginBottom)
		return float64(sc.MarginTop) + (hi-v)/(hi-lo)*plotHeight
	}

	sc.drawYAxis(&svg, lo, hi, yOf)
	sc.drawWeekAxis(&svg, series.Weeks, xOf)

	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" class="zero-line"/>`,
		sc.MarginLeft, yOf(0), sc.Width-sc.MarginRight, yOf(0)))
	threshold := series.Threshold.InexactFloat64()
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" class="threshold"/>`,
		sc.MarginLeft, yOf(threshold), sc.Width-sc.MarginRight, yOf(threshold)))

	weekIndex := make(map[entities.Week]int, len(series.Weeks))
	for i, w := range series.Weeks {
		weekIndex[w] = i
	}
	for i, line := range series.Lines {
		sc.drawLine(&svg, line, linePalette[i%len(linePalette)], weekIndex, xOf, yOf)
	}

	sc.drawLegend(&svg, series)

	svg.WriteString(`</svg>`)
	return svg.String()
}

// xScale spreads n weeks evenly across the plot width
func (sc *StockChart) xScale(n int) func(int) float64 {
	plotWidth := float64(sc.Width - sc.MarginLeft - sc.MarginRight)
	return func(i int) float64 {
		if n <= 1 {
			return float64(sc.MarginLeft) + plotWidth/2
		}
		return float64(sc.MarginLeft) + float64(i)*plotWidth/float64(n-1)
	}
}

// drawYAxis draws five horizontal grid lines with their values
func (sc *StockChart) drawYAxis(svg *strings.Builder, lo, hi float64, yOf func(float64) float64) {
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := lo + (hi-lo)*float64(i)/ticks
		y := yOf(v)
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" class="grid-line"/>`,
			sc.MarginLeft, y, sc.Width-sc.MarginRight, y))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" class="axis-label" text-anchor="end">%.0f</text>`,
			sc.MarginLeft-8, y+4, v))
	}
}

// drawWeekAxis labels every week, skipping labels when they would overlap
func (sc *StockChart) drawWeekAxis(svg *strings.Builder, weeks []entities.Week, xOf func(int) float64) {
	step := 1
	if len(weeks) > 26 {
		step = int(math.Ceil(float64(len(weeks)) / 26))
	}
	baseline := sc.Height - sc.MarginBottom
	for i := 0; i < len(weeks); i += step {
		svg.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" class="axis-label" text-anchor="middle">%s</text>`,
			xOf(i), baseline+18, html.EscapeString(string(weeks[i]))))
	}
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="axis-label" text-anchor="middle">Semaine</text>`,
		sc.MarginLeft+(sc.Width-sc.MarginLeft-sc.MarginRight)/2, baseline+40))
}

// drawLine draws one reference line with a marker per week coloured by status
func (sc *StockChart) drawLine(
	svg *strings.Builder,
	line summary.ReferenceSeries,
	color string,
	weekIndex map[entities.Week]int,
	xOf func(int) float64,
	yOf func(float64) float64,
) {
	points := make([]string, 0, len(line.Points))
	for _, p := range line.Points {
		points = append(points, fmt.Sprintf("%.1f,%.1f", xOf(weekIndex[p.Week]), yOf(p.Remaining.InexactFloat64())))
	}
	svg.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		strings.Join(points, " "), color))

	for _, p := range line.Points {
		svg.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3.5" fill="%s" stroke="%s"><title>%s S%s : %s (%s)</title></circle>`,
			xOf(weekIndex[p.Week]), yOf(p.Remaining.InexactFloat64()), statusColor(p.Status), color,
			html.EscapeString(string(line.Reference)), html.EscapeString(string(p.Week)),
			p.Remaining.String(), html.EscapeString(p.Status.Label())))
	}
}

// drawLegend lists the reference lines and the threshold
func (sc *StockChart) drawLegend(svg *strings.Builder, series summary.Series) {
	x := sc.Width - sc.MarginRight + 20
	y := sc.MarginTop

	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" class="threshold"/>`, x, y, x+20, y))
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="legend">SS max (%s)</text>`, x+26, y+4, series.Threshold.String()))

	const maxEntries = 15
	for i, line := range series.Lines {
		if i == maxEntries {
			svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="legend">+ %d autres</text>`,
				x, y+(i+1)*18+4, len(series.Lines)-maxEntries))
			break
		}
		ly := y + (i+1)*18
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			x, ly, x+20, ly, linePalette[i%len(linePalette)]))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="legend">%s</text>`,
			x+26, ly+4, html.EscapeString(string(line.Reference))))
	}
}

// statusColor returns the marker colour of a status
func statusColor(status entities.StockStatus) string {
	switch status {
	case entities.StatusShortfall:
		return "#d62728"
	case entities.StatusSafetyStockBreach:
		return "#ff9f1c"
	case entities.StatusOK:
		return "#2ca02c"
	default:
		return "#999999"
	}
}

// generateEmptyChart creates a placeholder when there is nothing to plot
func (sc *StockChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="%d" height="%d" fill="white"/>`+
		`<text x="%d" y="%d" text-anchor="middle" font-family="Arial, sans-serif" font-size="14" fill="#666">Aucune donnée à afficher</text>`+
		`</svg>`, sc.Width, sc.Height, sc.Width, sc.Height, sc.Width/2, sc.Height/2)
}
