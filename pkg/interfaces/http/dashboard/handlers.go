package dashboard

import (
	"bytes"
	"net/http"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"go.uber.org/zap"
)

// RowsResponse is the body of /api/rows
type RowsResponse struct {
	RunID string        `json:"run_id"`
	Count int           `json:"count"`
	Rows  []dto.RowView `json:"rows"`
}

// SummaryResponse is the body of /api/summary
type SummaryResponse struct {
	RunID      string       `json:"run_id"`
	ComputedAt time.Time    `json:"computed_at"`
	Rows       int          `json:"rows"`
	Alerts     int          `json:"alerts"`
	Shortfalls int          `json:"shortfalls"`
	Breaches   int          `json:"breaches"`
	KPIs       summary.KPIs `json:"kpis"`
}

// AlertView is one journal entry as served by /api/alerts
type AlertView struct {
	Type      string      `json:"type"`
	Stream    string      `json:"stream"`
	Version   int         `json:"version"`
	Position  int         `json:"position"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status     string `json:"status"`
	References int    `json:"references"`
}

// Health reports liveness and the size of the served table; it is never gated.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	refs, err := h.repo.GetReferences()
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", References: len(refs)})
}

// Index renders the interactive dashboard page
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	rows, filter, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	all, err := h.allRows()
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	page := output.NewReportPage(h.resultFor(rows)).
		WithFilters(summary.Options(all), filter, r.URL.Query())

	var buf bytes.Buffer
	if err := output.RenderHTML(&buf, page); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Rows returns the filtered projected rows
func (h *Handler) Rows(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RowsResponse{
		RunID: h.runID,
		Count: len(rows),
		Rows:  dto.NewRowViews(rows),
	})
}

// Summary returns the KPIs of the filtered rows
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	result := h.resultFor(rows)
	writeJSON(w, http.StatusOK, SummaryResponse{
		RunID:      result.RunID,
		ComputedAt: result.ComputedAt,
		Rows:       len(rows),
		Alerts:     result.AlertCount(),
		Shortfalls: result.Shortfalls,
		Breaches:   result.Breaches,
		KPIs:       summary.ComputeKPIs(rows),
	})
}

// WeeklyStatus returns the week x status pivot of the filtered rows
func (h *Handler) WeeklyStatus(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.WeeklyStatusCounts(rows))
}

// Options returns the filter choices; they are always computed from the whole table
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	rows, err := h.allRows()
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Options(rows))
}

// Alerts returns the alert journal, restricted to one reference stream when ?reference= is given once
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts := []AlertView{}
	if h.journal == nil {
		writeJSON(w, http.StatusOK, alerts)
		return
	}

	var (
		stored []events.Event
		err    error
	)
	if refs := r.URL.Query()["reference"]; len(refs) == 1 && refs[0] != AllValues {
		stored, err = h.journal.ReadStream(refs[0], 0)
	} else {
		stored, err = h.journal.ReadAll(0)
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	for _, event := range stored {
		if !isAlert(event.Type()) {
			continue
		}
		alerts = append(alerts, AlertView{
			Type:      event.Type(),
			Stream:    event.StreamID(),
			Version:   event.Version(),
			Position:  event.Position(),
			Timestamp: event.Timestamp(),
			Data:      event.Data(),
		})
	}
	writeJSON(w, http.StatusOK, alerts)
}

func isAlert(eventType string) bool {
	for _, t := range events.AlertEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// Chart renders the remaining stock chart of the filtered rows
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	series := summary.StockSeries(rows)
	svg := output.NewStockChart(series).GenerateSVG(series)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}

// ExportCSV downloads the filtered rows with their projection columns
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.csvWriter.WritePlanning(&buf, rows, h.extraColumns, true); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="projection.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ExportXLSX downloads the filtered rows as a workbook
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.selected(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := output.WriteWorkbook(&buf, h.resultFor(rows)); err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="projection.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("dashboard request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
