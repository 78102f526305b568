package projection

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/dto"
	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/LotfiJL/Jelo/pkg/domain/services"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoTable is returned when no planning table is supplied
var ErrNoTable = errors.New("no planning table provided")

// EngineConfig holds configuration for the projection engine
type EngineConfig struct {
	// Workers bounds how many references are folded concurrently (0 = NumCPU, 1 = sequential)
	Workers int
}

// ProjectionService computes the remaining stock projection and status of every planning row
type ProjectionService struct {
	config   EngineConfig
	weeks    *services.WeekComparator
	journal  events.Journal
	logger   *zap.Logger
	now      func() time.Time
	newRunID func() string
}

// NewProjectionService creates a projection service with default configuration
func NewProjectionService(logger *zap.Logger) *ProjectionService {
	return NewProjectionServiceWithConfig(EngineConfig{}, nil, logger)
}

// NewProjectionServiceWithConfig creates a projection service publishing alerts to journal (may be nil)
func NewProjectionServiceWithConfig(config EngineConfig, journal events.Journal, logger *zap.Logger) *ProjectionService {
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectionService{
		config:   config,
		weeks:    services.NewWeekComparator(),
		journal:  journal,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// span is the half-open index range of one reference in the sorted rows
type span struct {
	start, end int
}

// Project sorts the table by (reference, week, source order) and folds every reference.
// The input table is not modified; any derived values it carries are discarded.
func (s *ProjectionService) Project(ctx context.Context, table *entities.PlanningTable) (*dto.ProjectionResult, error) {
	if table == nil {
		return nil, ErrNoTable
	}

	startTime := s.now()
	work := table.Clone()
	rows := work.Rows
	for i := range rows {
		rows[i].ResetDerived()
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return s.weeks.CompareRows(&rows[i], &rows[j]) < 0
	})

	groups := groupByReference(rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for _, grp := range groups {
		grp := grp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			foldReference(rows[grp.start:grp.end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("projection interrupted: %w", err)
	}

	result := &dto.ProjectionResult{
		RunID:        s.newRunID(),
		ComputedAt:   startTime,
		Rows:         rows,
		ExtraColumns: work.ExtraColumns,
		References:   make([]entities.Reference, 0, len(groups)),
	}
	for _, grp := range groups {
		result.References = append(result.References, rows[grp.start].Reference)
	}
	for i := range rows {
		switch rows[i].Status {
		case entities.StatusShortfall:
			result.Shortfalls++
		case entities.StatusSafetyStockBreach:
			result.Breaches++
		}
	}

	s.publish(result)

	s.logger.Info("projection completed",
		zap.String("run_id", result.RunID),
		zap.Int("rows", len(rows)),
		zap.Int("references", len(result.References)),
		zap.Int("shortfalls", result.Shortfalls),
		zap.Int("breaches", result.Breaches),
		zap.Duration("elapsed", s.now().Sub(startTime)))

	return result, nil
}

// foldReference runs the carry-forward recurrence over the week-ordered rows of one reference.
// Week i starts from the balance of week i-1 plus the supply figures of week i-1.
func foldReference(rows []entities.PlanningRow) {
	balance := decimal.Zero
	arriving := decimal.Zero

	for i := range rows {
		row := &rows[i]
		row.RemainingStock = balance.Add(arriving).Sub(row.Need)
		services.ClassifyRow(row)

		balance = row.RemainingStock
		arriving = row.SupplyForNextWeek()
	}
}

// groupByReference splits sorted rows into contiguous reference spans
func groupByReference(rows []entities.PlanningRow) []span {
	var groups []span
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].Reference == rows[i].Reference {
			j++
		}
		groups = append(groups, span{start: i, end: j})
		i = j
	}
	return groups
}

// publish appends the run's alerts and completion summary to the journal
func (s *ProjectionService) publish(result *dto.ProjectionResult) {
	if s.journal == nil {
		return
	}

	for _, row := range result.Rows {
		event := events.NewStockAlertEvent(result.RunID, row)
		if event == nil {
			continue
		}
		if _, err := s.journal.Append(event.StreamID(), event); err != nil {
			s.logger.Warn("failed to publish stock alert",
				zap.String("reference", string(row.Reference)),
				zap.Error(err))
		}
	}

	completed := events.NewProjectionCompletedEvent(events.ProjectionCompleted{
		RunID:      result.RunID,
		Rows:       len(result.Rows),
		References: len(result.References),
		Shortfalls: result.Shortfalls,
		Breaches:   result.Breaches,
	})
	if _, err := s.journal.Append(completed.StreamID(), completed); err != nil {
		s.logger.Warn("failed to publish projection summary", zap.Error(err))
	}
}
