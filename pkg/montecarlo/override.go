package montecarlo

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
)

type overrideTarget int

const (
	targetMonthlyExpenses overrideTarget = iota
	targetDurationMonths
	targetAssetBalance
	targetAssetInterestRate
	targetAssetMinBalance
	targetIncomeAmount
	targetDepositAmount
	targetScheduleRate
)

// override is a compiled variable range: a known scenario field, the entity it
// belongs to, and the distribution its value is drawn from.
type override struct {
	path   string
	target overrideTarget
	name   string
	dist   Distribution
}

// compileOverrides resolves every path in ranges against base. Paths follow
//
//	plan.monthly_expenses
//	plan.duration_months
//	assets.<name>.balance | interest_rate | min_balance
//	income.<name>.amount
//	deposits.<target>.amount
//	rate_schedules.<name>.rate
//
// and must name an entity that exists in base. The result is ordered by path
// so that draws are assigned to fields deterministically.
func compileOverrides(base scenario.Scenario, ranges map[string]Distribution) ([]override, error) {
	paths := make([]string, 0, len(ranges))
	for path := range ranges {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	overrides := make([]override, 0, len(paths))
	for _, path := range paths {
		field := "variableRanges." + path
		dist := ranges[path]
		if err := dist.validate(); err != nil {
			return nil, &ConfigurationError{Field: field, Reason: "invalid distribution", Err: err}
		}
		ov, err := parsePath(base, path)
		if err != nil {
			return nil, &ConfigurationError{Field: field, Reason: err.Error()}
		}
		ov.dist = dist
		overrides = append(overrides, ov)
	}
	return overrides, nil
}

func parsePath(base scenario.Scenario, path string) (override, error) {
	parts := strings.Split(path, ".")
	ov := override{path: path}
	if len(parts) == 2 && parts[0] == "plan" {
		switch parts[1] {
		case "monthly_expenses":
			ov.target = targetMonthlyExpenses
		case "duration_months":
			ov.target = targetDurationMonths
		default:
			return ov, fmt.Errorf("unsupported plan field %q", parts[1])
		}
		return ov, nil
	}
	if len(parts) < 3 {
		return ov, fmt.Errorf("unsupported path %q", path)
	}

	section, fieldName := parts[0], parts[len(parts)-1]
	ov.name = strings.Join(parts[1:len(parts)-1], ".")
	switch section {
	case "assets":
		if base.AssetIndex(ov.name) < 0 {
			return ov, fmt.Errorf("unknown asset %q", ov.name)
		}
		switch fieldName {
		case "balance":
			ov.target = targetAssetBalance
		case "interest_rate":
			ov.target = targetAssetInterestRate
		case "min_balance":
			ov.target = targetAssetMinBalance
		default:
			return ov, fmt.Errorf("unsupported asset field %q", fieldName)
		}
	case "income":
		if fieldName != "amount" {
			return ov, fmt.Errorf("unsupported income field %q", fieldName)
		}
		if !hasIncome(base, ov.name) {
			return ov, fmt.Errorf("unknown income source %q", ov.name)
		}
		ov.target = targetIncomeAmount
	case "deposits":
		if fieldName != "amount" {
			return ov, fmt.Errorf("unsupported deposit field %q", fieldName)
		}
		if !hasDeposit(base, ov.name) {
			return ov, fmt.Errorf("unknown deposit target %q", ov.name)
		}
		ov.target = targetDepositAmount
	case "rate_schedules":
		if fieldName != "rate" {
			return ov, fmt.Errorf("unsupported rate schedule field %q", fieldName)
		}
		if !hasSchedule(base, ov.name) {
			return ov, fmt.Errorf("unknown rate schedule %q", ov.name)
		}
		ov.target = targetScheduleRate
	default:
		return ov, fmt.Errorf("unsupported path %q", path)
	}
	return ov, nil
}

func hasIncome(s scenario.Scenario, name string) bool {
	for _, income := range s.Income {
		if income.Name == name {
			return true
		}
	}
	return false
}

func hasDeposit(s scenario.Scenario, target string) bool {
	for _, deposit := range s.Deposits {
		if deposit.Target == target {
			return true
		}
	}
	return false
}

func hasSchedule(s scenario.Scenario, name string) bool {
	for _, schedule := range s.RateSchedules {
		if schedule.Name == name {
			return true
		}
	}
	return false
}

// apply writes v into the field o targets. s must be a trial-owned copy.
func (o override) apply(s *scenario.Scenario, v float64) {
	switch o.target {
	case targetMonthlyExpenses:
		s.Plan.MonthlyExpenses = v
	case targetDurationMonths:
		s.Plan.DurationMonths = int(math.Round(v))
	case targetAssetBalance, targetAssetInterestRate, targetAssetMinBalance:
		idx := s.AssetIndex(o.name)
		if idx < 0 {
			return
		}
		switch o.target {
		case targetAssetBalance:
			s.Assets[idx].Balance = v
		case targetAssetInterestRate:
			s.Assets[idx].InterestRate = v
		default:
			floor := v
			s.Assets[idx].MinBalance = &floor
		}
	case targetIncomeAmount:
		for i := range s.Income {
			if s.Income[i].Name == o.name {
				s.Income[i].Amount = v
			}
		}
	case targetDepositAmount:
		for i := range s.Deposits {
			if s.Deposits[i].Target == o.name {
				s.Deposits[i].Amount = v
			}
		}
	case targetScheduleRate:
		for i := range s.RateSchedules {
			if s.RateSchedules[i].Name == o.name {
				s.RateSchedules[i].Rate = v
			}
		}
	}
}
