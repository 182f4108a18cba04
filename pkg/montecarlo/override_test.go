package montecarlo

import (
	"math"
	"testing"

	"github.com/iwvelando/finance-montecarlo/pkg/random"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
)

func overrideScenario() scenario.Scenario {
	return scenario.Scenario{
		Name: "overrides",
		Plan: &scenario.Plan{MonthlyExpenses: 3000, DurationMonths: 120},
		Assets: []scenario.Asset{
			{Name: "Savings", Balance: 10000, InterestRate: 0.02, Compounding: "monthly"},
			{Name: "529.plan", Balance: -40000},
		},
		Income: []scenario.IncomeSource{
			{Name: "Pension", Amount: 900, StartMonth: 1, StopMonth: 60},
			{Name: "Pension", Amount: 900, StartMonth: 61},
		},
		Deposits:      []scenario.DepositEvent{{Target: "Emergency", Amount: 200}},
		RateSchedules: []scenario.RateSchedule{{Name: "investment_growth", Rate: 0.05, Type: "stocks"}},
	}
}

func TestCompileAndApplyOverrides(t *testing.T) {
	fixed := func(v float64) Distribution { return Distribution{Type: DistUniform, Min: v, Max: v} }
	ranges := map[string]Distribution{
		"plan.monthly_expenses":                 fixed(3500),
		"plan.duration_months":                  fixed(95.6),
		"assets.Savings.balance":                fixed(12000),
		"assets.Savings.interest_rate":          fixed(0.03),
		"assets.Savings.min_balance":            fixed(5000),
		"assets.529.plan.balance":               fixed(-30000),
		"income.Pension.amount":                 fixed(1000),
		"deposits.Emergency.amount":             fixed(250),
		"rate_schedules.investment_growth.rate": fixed(0.07),
	}
	base := overrideScenario()
	overrides, err := compileOverrides(base, ranges)
	if err != nil {
		t.Fatalf("compileOverrides() error = %v", err)
	}
	if len(overrides) != len(ranges) {
		t.Fatalf("compiled %d overrides, expected %d", len(overrides), len(ranges))
	}
	for i := 1; i < len(overrides); i++ {
		if overrides[i-1].path > overrides[i].path {
			t.Fatalf("overrides not sorted by path: %s before %s", overrides[i-1].path, overrides[i].path)
		}
	}

	s := base.Clone()
	src := random.New(1)
	for _, ov := range overrides {
		ov.apply(&s, ov.dist.Sample(src))
	}

	if s.Plan.MonthlyExpenses != 3500 || s.Plan.DurationMonths != 96 {
		t.Errorf("plan = %+v", *s.Plan)
	}
	savings := s.Assets[0]
	if savings.Balance != 12000 || savings.InterestRate != 0.03 || savings.MinBalance == nil || *savings.MinBalance != 5000 {
		t.Errorf("savings = %+v", savings)
	}
	if s.Assets[1].Balance != -30000 {
		t.Errorf("dotted asset name not resolved: %+v", s.Assets[1])
	}
	for _, income := range s.Income {
		if income.Amount != 1000 {
			t.Errorf("income %+v not overridden", income)
		}
	}
	if s.Deposits[0].Amount != 250 || s.RateSchedules[0].Rate != 0.07 {
		t.Errorf("deposit = %+v schedule = %+v", s.Deposits[0], s.RateSchedules[0])
	}

	if base.Plan.MonthlyExpenses != 3000 || base.Assets[0].MinBalance != nil {
		t.Error("overrides must not touch the base scenario")
	}
}

func TestCompileOverridesRejects(t *testing.T) {
	ok := Distribution{Type: DistNormal, Mean: 1, StdDev: 0.1}
	tests := []struct {
		name string
		path string
		dist Distribution
	}{
		{"unknown plan field", "plan.inflation", ok},
		{"unknown section", "taxes.federal.rate", ok},
		{"too short", "assets", ok},
		{"unknown asset", "assets.Ghost.balance", ok},
		{"unsupported asset field", "assets.Savings.type", ok},
		{"unknown income", "income.Salary.amount", ok},
		{"unsupported income field", "income.Pension.start_month", ok},
		{"unknown deposit target", "deposits.Savings.amount", ok},
		{"unknown schedule", "rate_schedules.bear.rate", ok},
		{"unknown distribution", "plan.monthly_expenses", Distribution{Type: "cauchy"}},
		{"negative std dev", "plan.monthly_expenses", Distribution{Type: DistNormal, StdDev: -1}},
		{"inverted uniform", "plan.monthly_expenses", Distribution{Type: DistUniform, Min: 2, Max: 1}},
		{"mode outside triangle", "plan.monthly_expenses", Distribution{Type: DistTriangular, Min: 1, Mode: 5, Max: 3}},
		{"non-finite parameter", "plan.monthly_expenses", Distribution{Type: DistNormal, Mean: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileOverrides(overrideScenario(), map[string]Distribution{tt.path: tt.dist})
			cfgErr, isCfg := err.(*ConfigurationError)
			if !isCfg {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != "variableRanges."+tt.path {
				t.Errorf("Field = %q", cfgErr.Field)
			}
		})
	}
}

func TestDistributionSample(t *testing.T) {
	src := random.New(99)
	tests := []struct {
		name string
		dist Distribution
		lo   float64
		hi   float64
	}{
		{"uniform", Distribution{Type: DistUniform, Min: 10, Max: 20}, 10, 20},
		{"triangular", Distribution{Type: DistTriangular, Min: 1, Mode: 2, Max: 4}, 1, 4},
		{"bounded normal", Distribution{Type: DistNormal, Mean: 0, StdDev: 100, Min: -1, Max: 1}, -1, 1},
		{"lognormal", Distribution{Type: "LogNormal", Mean: 0, StdDev: 0.5}, 0, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.dist.validate(); err != nil {
				t.Fatalf("validate() error = %v", err)
			}
			for i := 0; i < 1000; i++ {
				v := tt.dist.Sample(src)
				if v < tt.lo || v > tt.hi {
					t.Fatalf("sample %v outside [%v, %v]", v, tt.lo, tt.hi)
				}
			}
		})
	}
}

func TestDistributionSampleDeterministic(t *testing.T) {
	dist := Distribution{Type: DistNormal, Mean: 5000, StdDev: 250}
	a, b := random.New(12345), random.New(12345)
	for i := 0; i < 50; i++ {
		if dist.Sample(a) != dist.Sample(b) {
			t.Fatalf("draw %d differs for the same seed", i)
		}
	}
}
