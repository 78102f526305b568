package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/services/callload"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
	csvrepo "github.com/LotfiJL/Jelo/pkg/infrastructure/repositories/csv"
	"github.com/LotfiJL/Jelo/pkg/interfaces/cli/output"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// generateScenario writes a 3 x 4 planning table and returns its path
func generateScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cmd := NewGenerateCommand(GenerateConfig{
		References: 3,
		Weeks:      4,
		OutputDir:  dir,
		Seed:       42,
		Stdout:     &bytes.Buffer{},
	})
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return filepath.Join(dir, PlanningFileName)
}

func TestGenerateCommand_IsReproducible(t *testing.T) {
	first := NewGenerateCommand(GenerateConfig{References: 2, Weeks: 5, Seed: 7}).GenerateRows()
	second := NewGenerateCommand(GenerateConfig{References: 2, Weeks: 5, Seed: 7}).GenerateRows()

	if len(first) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(first))
	}
	for i := range first {
		if !first[i].Need.Equal(second[i].Need) || !first[i].PlannedProduction.Equal(second[i].PlannedProduction) {
			t.Errorf("Row %d differs between runs with the same seed", i)
		}
		if first[i].SourceIndex != i {
			t.Errorf("Expected source index %d, got %d", i, first[i].SourceIndex)
		}
	}
	if first[0].Week != "1" || first[4].Week != "5" {
		t.Errorf("Expected weeks 1..5, got %s..%s", first[0].Week, first[4].Week)
	}
}

func TestGenerateCommand_Validation(t *testing.T) {
	cmd := NewGenerateCommand(GenerateConfig{References: 0, Weeks: 4, OutputDir: t.TempDir()})
	if err := cmd.Execute(context.Background()); err == nil {
		t.Error("Expected error for zero references, got none")
	}
}

func TestProjectCommand_JSON(t *testing.T) {
	path := generateScenario(t)

	tests := []struct {
		name       string
		references []string
		expected   int
	}{
		{"all rows", nil, 12},
		{"one reference", []string{"REF0002"}, 4},
		{"unknown reference", []string{"NOPE"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := NewProjectCommand(Config{
				InputFile:  path,
				CSV:        csvrepo.DefaultOptions(),
				Format:     "json",
				References: tt.references,
				Stdout:     &buf,
			}, zap.NewNop())

			if err := cmd.Execute(context.Background()); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			var report output.Report
			if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
				t.Fatalf("Failed to decode report: %v", err)
			}
			if len(report.Rows) != tt.expected {
				t.Errorf("Expected %d rows, got %d", tt.expected, len(report.Rows))
			}
			for _, row := range report.Rows {
				if row.StatusLabel == "?" {
					t.Errorf("Row %s/%s was not classified", row.Reference, row.Week)
				}
			}
		})
	}
}

func TestProjectCommand_WritesToOutputDir(t *testing.T) {
	path := generateScenario(t)
	outDir := t.TempDir()

	var buf bytes.Buffer
	cmd := NewProjectCommand(Config{
		InputFile: path,
		CSV:       csvrepo.DefaultOptions(),
		Format:    "csv",
		OutputDir: outDir,
		Verbose:   true,
		Stdout:    &buf,
	}, nil)

	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "projection.csv")); err != nil {
		t.Errorf("Expected projection.csv in output directory: %v", err)
	}
	if !strings.Contains(buf.String(), " alerts: ") {
		t.Errorf("Expected the alert count in verbose output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "🏁 Projection complete!") {
		t.Errorf("Expected verbose completion message, got %q", buf.String())
	}
}

func TestProjectCommand_MissingInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no input", ""},
		{"missing file", filepath.Join(t.TempDir(), "absent.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewProjectCommand(Config{InputFile: tt.input, Format: "text"}, nil)
			if err := cmd.Execute(context.Background()); err == nil {
				t.Error("Expected error, got none")
			}
		})
	}
}

func TestLoadCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	content := []byte("Famille;Type d'appel;Site;Client;Ref;S01;S02\n" +
		"VALVES;Appel;IDL;ACME;V1;100;0\n" +
		"VALVES;Appel planifi\x82;IDL;ACME;V1;150;20\n" +
		"PUMPS;Appel planifi\xe9;IDL;ACME;P1;5;5\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write call file: %v", err)
	}

	var buf bytes.Buffer
	cmd := NewLoadCommand(LoadConfig{
		InputFile: path,
		CSV:       csvrepo.DefaultOptions(),
		Format:    "json",
		Stdout:    &buf,
	}, zap.NewNop())
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var table callload.LoadTable
	if err := json.Unmarshal(buf.Bytes(), &table); err != nil {
		t.Fatalf("Failed to decode load table: %v", err)
	}

	if len(table.Families) != 2 {
		t.Fatalf("Expected 2 families, got %d", len(table.Families))
	}

	// families are sorted: PUMPS has no client calls, VALVES has 150/100 then 20/0
	expected := map[string][]string{
		"PUMPS":  {"0", "0"},
		"VALVES": {"1.5", "0"},
	}
	for _, family := range table.Families {
		for i, want := range expected[family.Family] {
			if !family.Weeks[i].Load.Equal(decimal.RequireFromString(want)) {
				t.Errorf("%s week %s: expected load %s, got %s", family.Family, family.Weeks[i].Week, want, family.Weeks[i].Load)
			}
		}
	}
}

func TestLoadCommand_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.csv")
	content := []byte("Famille;Type d'appel;Site;Client;Ref;S01\n" +
		"VALVES;Appel;IDL;ACME;V1;100\n" +
		"VALVES;Appel planifi\xe9;IDL;ACME;V1;50\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write call file: %v", err)
	}

	var buf bytes.Buffer
	cmd := NewLoadCommand(LoadConfig{InputFile: path, Format: "text", Stdout: &buf}, nil)
	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(buf.String(), "50.0%") {
		t.Errorf("Expected a 50.0%% load in output, got:\n%s", buf.String())
	}
}

func TestServeCommand_ServesUntilCancelled(t *testing.T) {
	path := generateScenario(t)

	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	base := "http://" + listener.Addr().String()

	cmd := NewServeCommand(ServeConfig{
		Project: Config{
			InputFile: path,
			CSV:       csvrepo.DefaultOptions(),
			Stdout:    &bytes.Buffer{},
		},
		Users: []auth.User{{Username: "admin", PasswordHash: hash}},
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cmd.Serve(ctx, listener)
	}()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected health 200, got %d", resp.StatusCode)
	}

	resp, err = client.Get(base + "/api/rows")
	if err != nil {
		t.Fatalf("Rows request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, base+"/api/rows", nil)
	req.SetBasicAuth("admin", "secret1")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("Authenticated request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 with credentials, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestServeCommand_Verifier(t *testing.T) {
	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name    string
		config  ServeConfig
		open    bool
		allowed bool
	}{
		{"no auth", ServeConfig{NoAuth: true}, true, false},
		{"no users denies everyone", ServeConfig{}, false, false},
		{"configured user", ServeConfig{Users: []auth.User{{Username: "admin", PasswordHash: hash}}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier, err := NewServeCommand(tt.config, nil).verifier()
			if err != nil {
				t.Fatalf("verifier failed: %v", err)
			}
			if (verifier == nil) != tt.open {
				t.Fatalf("Expected open=%v, got verifier %v", tt.open, verifier)
			}
			if verifier == nil {
				return
			}

			allowed, err := verifier.Verify(context.Background(), "admin", "secret1")
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("Expected allowed=%v, got %v", tt.allowed, allowed)
			}
		})
	}
}

func TestServeCommand_RejectsInvalidUsers(t *testing.T) {
	path := generateScenario(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	cmd := NewServeCommand(ServeConfig{
		Project: Config{InputFile: path, CSV: csvrepo.DefaultOptions(), Stdout: &bytes.Buffer{}},
		Users:   []auth.User{{Username: "admin", PasswordHash: "not-a-hash"}},
	}, nil)

	if err := cmd.Serve(context.Background(), listener); err == nil {
		t.Error("Expected error for an invalid password hash, got none")
	}
}
