package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/services/access"
	"github.com/LotfiJL/Jelo/pkg/application/services/projection"
	"github.com/LotfiJL/Jelo/pkg/application/services/summary"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func planningRow(ref, week, client string, need int64, index int) entities.PlanningRow {
	return entities.PlanningRow{
		Reference:   entities.Reference(ref),
		Week:        entities.Week(week),
		Client:      client,
		Need:        decimal.NewFromInt(need),
		SafetyStock: decimal.Zero,
		SourceIndex: index,
	}
}

func newTestRouter(t *testing.T, verifier access.Verifier) http.Handler {
	t.Helper()
	return newTestHandler(t).Routes(RouteConfig{Verifier: verifier})
}

// newTestHandler projects R1 (client A, two shortfalls) and R2 (client B, two OK rows)
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	table := &entities.PlanningTable{Rows: []entities.PlanningRow{
		planningRow("R1", "1", "A", 10, 0),
		planningRow("R1", "2", "A", 0, 1),
		planningRow("R2", "1", "B", 0, 2),
		planningRow("R2", "2", "B", 0, 3),
	}}

	journal := events.NewInMemoryJournal(zap.NewNop())
	service := projection.NewProjectionServiceWithConfig(projection.EngineConfig{Workers: 2}, journal, zap.NewNop())
	result, err := service.Project(context.Background(), table)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	h, err := NewHandler(result, journal, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	return h
}

var adminOnly = access.VerifierFunc(func(_ context.Context, identity, secret string) (bool, error) {
	return identity == "admin" && secret == "secret", nil
})

func get(t *testing.T, router http.Handler, target string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authenticated {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_HealthIsNotGated(t *testing.T) {
	router := newTestRouter(t, access.DenyAll)

	rec := get(t, router, "/healthz", false)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"status":"ok","references":2}` {
		t.Errorf("Expected ok body, got %q", body)
	}
}

func TestRoutes_Gate(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	paths := []string{"/", "/api/rows", "/api/summary", "/api/weekly-status", "/api/options", "/api/alerts", "/chart.svg", "/export.csv", "/export.xlsx"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := get(t, router, path, false)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401 without credentials, got %d", rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("Expected a WWW-Authenticate challenge")
			}

			rec = get(t, router, path, true)
			if rec.Code != http.StatusOK {
				t.Errorf("Expected status 200 with credentials, got %d", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rows", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for a wrong password, got %d", rec.Code)
	}
}

func TestRoutes_OpenWithoutVerifier(t *testing.T) {
	router := newTestRouter(t, nil)

	if rec := get(t, router, "/api/rows", false); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 on an open dashboard, got %d", rec.Code)
	}
}

func TestRoutes_RateLimit(t *testing.T) {
	router := newTestHandler(t).Routes(RouteConfig{RateLimit: 60, Burst: 2})

	request := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/rows", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := request("192.0.2.1:1234"); code != http.StatusOK {
			t.Fatalf("Expected status 200 within burst, got %d", code)
		}
	}
	if code := request("192.0.2.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 past the burst, got %d", code)
	}
	if code := request("198.51.100.7:1234"); code != http.StatusOK {
		t.Errorf("Expected another client to have its own budget, got %d", code)
	}
}

func TestClientLimiter_Evict(t *testing.T) {
	limiter := newClientLimiter(60, 1)
	limiter.Allow("a")
	limiter.Allow("b")

	limiter.Evict(-time.Second)

	if len(limiter.limiters) != 0 || len(limiter.lastAccess) != 0 {
		t.Errorf("Expected every limiter evicted, got %d", len(limiter.limiters))
	}
	if !limiter.Allow("a") {
		t.Error("Expected a fresh budget after eviction")
	}
}

func TestRows_Filters(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	tests := []struct {
		query    string
		expected int
	}{
		{"", 4},
		{"?reference=*", 4},
		{"?reference=R1", 2},
		{"?reference=R1&reference=R2", 4},
		{"?reference=R1&reference=*", 4},
		{"?client=B", 2},
		{"?client=B&week=2", 1},
		{"?reference=R1&client=B", 0},
		{"?reference=R1&week=2", 1},
		{"?reference=R3", 0},
		{"?week=99", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := get(t, router, "/api/rows"+tt.query, true)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rec.Code)
			}

			var resp RowsResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Count != tt.expected || len(resp.Rows) != tt.expected {
				t.Errorf("Expected %d rows, got count=%d len=%d", tt.expected, resp.Count, len(resp.Rows))
			}
			if resp.RunID == "" {
				t.Error("Expected a run id")
			}
		})
	}
}

func TestRows_CarryProjectedValues(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	var resp RowsResponse
	rec := get(t, router, "/api/rows?reference=R1", true)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	for _, row := range resp.Rows {
		if row.Status != entities.StatusShortfall {
			t.Errorf("Week %s: expected Shortfall, got %s", row.Week, row.Status)
		}
		if !row.RemainingStock.Equal(decimal.NewFromInt(-10)) {
			t.Errorf("Week %s: expected remaining -10, got %s", row.Week, row.RemainingStock)
		}
	}
}

func TestSummary(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	tests := []struct {
		query      string
		alertRows  int
		references int
	}{
		{"", 2, 2},
		{"?client=B", 0, 1},
	}

	for _, tt := range tests {
		rec := get(t, router, "/api/summary"+tt.query, true)
		var resp SummaryResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.KPIs.AlertRows != tt.alertRows {
			t.Errorf("%q: expected %d alert rows, got %d", tt.query, tt.alertRows, resp.KPIs.AlertRows)
		}
		if resp.KPIs.References != tt.references {
			t.Errorf("%q: expected %d references, got %d", tt.query, tt.references, resp.KPIs.References)
		}
		if resp.Alerts != tt.alertRows {
			t.Errorf("%q: expected %d alerts, got %d", tt.query, tt.alertRows, resp.Alerts)
		}
		if resp.Shortfalls != tt.alertRows {
			t.Errorf("%q: expected %d shortfalls, got %d", tt.query, tt.alertRows, resp.Shortfalls)
		}
	}
}

func TestWeeklyStatus(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	var pivot []summary.WeekStatusCount
	rec := get(t, router, "/api/weekly-status", true)
	if err := json.NewDecoder(rec.Body).Decode(&pivot); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(pivot) != 2 {
		t.Fatalf("Expected 2 weeks, got %d", len(pivot))
	}
	for _, week := range pivot {
		if week.OK != 1 || week.Shortfall != 1 || week.SafetyStockBreach != 0 {
			t.Errorf("Week %s: expected 1 OK and 1 Shortfall, got %+v", week.Week, week)
		}
	}
}

func TestOptions_IgnoreFilters(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	var opts summary.FilterOptions
	rec := get(t, router, "/api/options?reference=R1", true)
	if err := json.NewDecoder(rec.Body).Decode(&opts); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(opts.References) != 2 || len(opts.Clients) != 2 || len(opts.Weeks) != 2 {
		t.Errorf("Expected 2 options per dimension, got %+v", opts)
	}
}

func TestAlerts(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	tests := []struct {
		query    string
		expected int
	}{
		{"", 2},
		{"?reference=R1", 2},
		{"?reference=R2", 0},
	}

	for _, tt := range tests {
		var alerts []AlertView
		rec := get(t, router, "/api/alerts"+tt.query, true)
		if err := json.NewDecoder(rec.Body).Decode(&alerts); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(alerts) != tt.expected {
			t.Errorf("%q: expected %d alerts, got %d", tt.query, tt.expected, len(alerts))
		}
		for _, alert := range alerts {
			if alert.Type != events.ShortfallDetectedEvent {
				t.Errorf("Expected %s, got %s", events.ShortfallDetectedEvent, alert.Type)
			}
		}
	}
}

func TestPages(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	rec := get(t, router, "/?reference=R1", true)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected html content type, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "Projection du stock") {
		t.Error("Expected the page title in the body")
	}
	if !strings.Contains(rec.Body.String(), "/export.csv?reference=R1") {
		t.Error("Expected export links to keep the current filters")
	}

	rec = get(t, router, "/chart.svg", true)
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Expected svg content type, got %s", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Error("Expected an svg document")
	}
}

func TestExports(t *testing.T) {
	router := newTestRouter(t, adminOnly)

	rec := get(t, router, "/export.csv?client=A", true)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "projection.csv") {
		t.Errorf("Expected csv attachment, got %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Statut") {
		t.Errorf("Expected derived columns in header, got %q", lines[0])
	}

	rec = get(t, router, "/export.xlsx", true)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to open exported workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Projection")
	if err != nil {
		t.Fatalf("Failed to read sheet: %v", err)
	}
	if len(rows) != 5 {
		t.Errorf("Expected header and 4 rows, got %d", len(rows))
	}
}

func TestParseFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?reference=R1&reference=R2&week=*", nil)
	filter := ParseFilter(req)

	if filter.References.All || len(filter.References.Values) != 2 {
		t.Errorf("Expected two selected references, got %+v", filter.References)
	}
	if !filter.Clients.All {
		t.Error("Expected absent client parameter to select all")
	}
	if !filter.Weeks.All {
		t.Error("Expected * to select all weeks")
	}
}

func TestNewHandler_RejectsNilResult(t *testing.T) {
	if _, err := NewHandler(nil, nil, nil); err == nil {
		t.Error("Expected error for nil result, got none")
	}
}
