package callload

import (
	"sort"

	"github.com/LotfiJL/Jelo/pkg/domain/entities"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RatioPlaces is the number of decimal places kept in a load ratio
const RatioPlaces = 6

// WeekLoad holds the call totals and load ratio of one family for one week
type WeekLoad struct {
	Week    entities.Week   `json:"week"`
	Client  decimal.Decimal `json:"client"`
	Planned decimal.Decimal `json:"planned"`
	Load    decimal.Decimal `json:"load"`
}

// FamilyLoad is the weekly load of one product family
type FamilyLoad struct {
	Family string     `json:"family"`
	Weeks  []WeekLoad `json:"weeks"`
}

// LoadTable is the family x week load matrix
type LoadTable struct {
	Weeks    []entities.Week `json:"weeks"`
	Families []FamilyLoad    `json:"families"`
}

// LoadService computes planned/client call ratios per family and week
type LoadService struct {
	logger *zap.Logger
}

// NewLoadService creates a call-load service
func NewLoadService(logger *zap.Logger) *LoadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoadService{logger: logger}
}

// Compute sums client and planned calls per family over the given week columns.
// The load is planned / client, or zero when the family has no client calls that week.
// Lines of any other call type are ignored.
func (s *LoadService) Compute(weeks []entities.Week, lines []entities.CallLine) *LoadTable {
	type totals struct {
		client  map[entities.Week]decimal.Decimal
		planned map[entities.Week]decimal.Decimal
	}

	byFamily := make(map[string]*totals)
	ignored := 0
	for _, line := range lines {
		if line.Type == entities.OtherCall {
			ignored++
			continue
		}
		t, ok := byFamily[line.Family]
		if !ok {
			t = &totals{
				client:  make(map[entities.Week]decimal.Decimal),
				planned: make(map[entities.Week]decimal.Decimal),
			}
			byFamily[line.Family] = t
		}
		target := t.client
		if line.Type == entities.PlannedCall {
			target = t.planned
		}
		for week, volume := range line.Volumes {
			target[week] = target[week].Add(volume)
		}
	}

	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)

	table := &LoadTable{
		Weeks:    append([]entities.Week(nil), weeks...),
		Families: make([]FamilyLoad, 0, len(families)),
	}
	for _, family := range families {
		t := byFamily[family]
		fl := FamilyLoad{Family: family, Weeks: make([]WeekLoad, 0, len(weeks))}
		for _, week := range weeks {
			fl.Weeks = append(fl.Weeks, WeekLoad{
				Week:    week,
				Client:  t.client[week],
				Planned: t.planned[week],
				Load:    Ratio(t.planned[week], t.client[week]),
			})
		}
		table.Families = append(table.Families, fl)
	}

	s.logger.Debug("call load computed",
		zap.Int("families", len(families)),
		zap.Int("weeks", len(weeks)),
		zap.Int("ignored_lines", ignored))

	return table
}

// Ratio returns planned / client rounded to RatioPlaces, or zero when client is zero
func Ratio(planned, client decimal.Decimal) decimal.Decimal {
	if client.IsZero() {
		return decimal.Zero
	}
	return planned.DivRound(client, RatioPlaces)
}
