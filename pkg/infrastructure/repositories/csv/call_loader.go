package csv

import (
	"fmt"
	"io"
	"strings"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FirstWeekColumn is the 0-based index of the first week column in a call-off schedule
const FirstWeekColumn = 5

// CallSchedule is a parsed call-off schedule
type CallSchedule struct {
	Weeks []entities.Week
	Lines []entities.CallLine
}

// LoadCalls loads a call-off schedule from a delimited file
func (l *Loader) LoadCalls(filename string) (*CallSchedule, *LoadReport, error) {
	file, err := openFile(filename, "call")
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	schedule, report, err := l.ReadCalls(file)
	if err != nil {
		return nil, nil, fmt.Errorf("call file %s: %w", filename, err)
	}
	return schedule, report, nil
}

// ReadCalls parses a call-off schedule: "Famille" and "Type d'appel" columns,
// then one volume column per week starting at FirstWeekColumn.
func (l *Loader) ReadCalls(r io.Reader) (*CallSchedule, *LoadReport, error) {
	records, err := l.readRecords(r)
	if err != nil {
		return nil, nil, err
	}

	header := records[0]
	familyIdx, typeIdx := -1, -1
	for i, name := range header {
		switch normalizeHeader(name) {
		case "famille", "family":
			if familyIdx < 0 {
				familyIdx = i
			}
		case "type_d_appel", "call_type":
			if typeIdx < 0 {
				typeIdx = i
			}
		}
	}
	if familyIdx < 0 {
		return nil, nil, fmt.Errorf("%w: Famille", ErrMissingColumn)
	}
	if typeIdx < 0 {
		return nil, nil, fmt.Errorf("%w: Type d'appel", ErrMissingColumn)
	}

	schedule := &CallSchedule{}
	for i := FirstWeekColumn; i < len(header); i++ {
		schedule.Weeks = append(schedule.Weeks, entities.Week(header[i]))
	}

	report := &LoadReport{}
	for i, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		p := &cellParser{loader: l, line: i + 2, report: report}

		rawType := cell(record, typeIdx)
		line := entities.CallLine{
			Family:  strings.TrimSpace(cell(record, familyIdx)),
			Type:    entities.ParseCallType(rawType),
			RawType: rawType,
			Volumes: make(map[entities.Week]decimal.Decimal, len(schedule.Weeks)),
		}
		for w, week := range schedule.Weeks {
			line.Volumes[week] = p.decimal(string(week), cell(record, FirstWeekColumn+w))
		}
		schedule.Lines = append(schedule.Lines, line)
	}

	report.Rows = len(schedule.Lines)
	l.logger.Debug("call schedule loaded",
		zap.Int("lines", report.Rows),
		zap.Int("weeks", len(schedule.Weeks)),
		zap.Int("coerced_cells", report.CoercedCells))

	return schedule, report, nil
}
