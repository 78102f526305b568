// Package dashboard serves a projected planning table over HTTP: the filterable
// HTML page, its JSON API, the stock chart and the CSV/XLSX exports.
package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/application/services/access"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/domain/repositories"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/memory"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AllValues is the query value meaning "every option" for a filter dimension
const AllValues = "*"

// Handler serves one projection result. The rows are read-only once loaded.
type Handler struct {
	repo         repositories.PlanningRepository
	journal      events.Journal
	runID        string
	computedAt   time.Time
	extraColumns []string
	csvWriter    *csvrepo.Writer
	logger       *zap.Logger
}

// NewHandler stores the projected rows in a memory repository and prepares the exporters.
// journal may be nil, in which case /api/alerts returns an empty list.
func NewHandler(result *dto.ProjectionResult, journal events.Journal, logger *zap.Logger) (*Handler, error) {
	if result == nil {
		return nil, fmt.Errorf("dashboard needs a projection result")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repo := memory.NewPlanningRepository(len(result.Rows))
	if err := repo.LoadRows(result.Rows); err != nil {
		return nil, fmt.Errorf("failed to store projected rows: %w", err)
	}

	writer, err := csvrepo.NewWriter(csvrepo.Options{
		Delimiter: ';',
		Encoding:  csvrepo.EncodingUTF8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create csv writer: %w", err)
	}

	return &Handler{
		repo:         repo,
		journal:      journal,
		runID:        result.RunID,
		computedAt:   result.ComputedAt,
		extraColumns: append([]string(nil), result.ExtraColumns...),
		csvWriter:    writer,
		logger:       logger,
	}, nil
}

// RouteConfig controls the middleware stack of Routes
type RouteConfig struct {
	// Verifier gates every route except /healthz. A nil verifier leaves the dashboard open.
	Verifier access.Verifier
	Realm    string
	Timeout  time.Duration
	// RateLimit caps requests per minute and client; 0 disables it.
	RateLimit int
	Burst     int
}

// Routes returns the dashboard router.
func (h *Handler) Routes(config RouteConfig) http.Handler {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(h.logger))
	if config.RateLimit > 0 {
		r.Use(RateLimit(config.RateLimit, config.Burst, h.logger))
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(config.Timeout))

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		if config.Verifier != nil {
			r.Use(auth.BasicAuth(config.Verifier, config.Realm, h.logger))
		}

		r.Get("/", h.Index)
		r.Get("/chart.svg", h.Chart)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)

		r.Route("/api", func(r chi.Router) {
			r.Get("/rows", h.Rows)
			r.Get("/summary", h.Summary)
			r.Get("/weekly-status", h.WeeklyStatus)
			r.Get("/options", h.Options)
			r.Get("/alerts", h.Alerts)
		})
	})

	return r
}

// ParseFilter reads the repeatable reference, client and week query parameters.
// An absent parameter, or one containing "*", selects every value.
func ParseFilter(r *http.Request) summary.RowFilter {
	query := r.URL.Query()
	return summary.RowFilter{
		References: parseSelection(query["reference"]),
		Clients:    parseSelection(query["client"]),
		Weeks:      parseSelection(query["week"]),
	}
}

func parseSelection(values []string) summary.Selection {
	if len(values) == 0 {
		return summary.SelectAll()
	}
	for _, v := range values {
		if v == AllValues {
			return summary.SelectAll()
		}
	}
	return summary.Select(values...)
}

// allRows returns every stored row
func (h *Handler) allRows() ([]entities.PlanningRow, error) {
	rows, err := h.repo.GetRows()
	if err != nil {
		return nil, fmt.Errorf("failed to read projected rows: %w", err)
	}
	return rows, nil
}

// selected returns the rows chosen by the request.
// A single reference is read from its own group instead of scanning the table.
func (h *Handler) selected(r *http.Request) ([]entities.PlanningRow, summary.RowFilter, error) {
	filter := ParseFilter(r)

	if refs := filter.References; !refs.All && len(refs.Values) == 1 {
		rows, err := h.repo.GetRowsByReference(entities.Reference(refs.Values[0]))
		if errors.Is(err, repositories.ErrReferenceNotFound) {
			return []entities.PlanningRow{}, filter, nil
		}
		if err != nil {
			return nil, filter, fmt.Errorf("failed to read projected rows: %w", err)
		}
		return summary.Filter(rows, filter), filter, nil
	}

	all, err := h.allRows()
	if err != nil {
		return nil, filter, err
	}
	return summary.Filter(all, filter), filter, nil
}

// resultFor wraps a row subset with the metadata of the stored run
func (h *Handler) resultFor(rows []entities.PlanningRow) *dto.ProjectionResult {
	return &dto.ProjectionResult{
		RunID:        h.runID,
		ComputedAt:   h.computedAt,
		Rows:         rows,
		ExtraColumns: h.extraColumns,
		References:   summary.Options(rows).References,
		Shortfalls:   len(summary.ByStatus(rows, entities.StatusShortfall)),
		Breaches:     len(summary.ByStatus(rows, entities.StatusSafetyStockBreach)),
	}
}
