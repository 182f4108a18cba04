package scenario

import (
	"errors"
	"math"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func baseScenario() Scenario {
	return Scenario{
		Name: "base",
		Plan: &Plan{MonthlyExpenses: 3000, DurationMonths: 12},
		Assets: []Asset{
			{Name: "Savings", Balance: 120000, InterestRate: 0.02, Compounding: "monthly", MinBalance: floatPtr(1000), Type: "cash"},
			{Name: "Brokerage", Balance: 50000, Type: "stocks"},
		},
		Income:   []IncomeSource{{Name: "SS", Amount: 1800, StartMonth: 12}},
		Deposits: []DepositEvent{{Target: "NewFund", Amount: 100, StartMonth: 1}},
		Order: []WithdrawalOrderEntry{
			{Account: "Savings", Order: 1},
			{Account: "NewFund", Order: 2},
		},
		RateSchedules: []RateSchedule{{Name: "growth", Rate: 0.05, Assets: []string{"Brokerage"}}},
		Returns:       map[string][]float64{"stocks": {0.1, -0.2}},
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := baseScenario()
	clone := original.Clone()

	clone.Plan.MonthlyExpenses = 1
	clone.Assets[0].Balance = 1
	*clone.Assets[0].MinBalance = 1
	clone.Income[0].Amount = 1
	clone.Deposits[0].Amount = 1
	clone.Order[0].Order = 9
	clone.RateSchedules[0].Assets[0] = "other"
	clone.Returns["stocks"][0] = 9

	if original.Plan.MonthlyExpenses != 3000 {
		t.Error("plan shared between clone and original")
	}
	if original.Assets[0].Balance != 120000 || *original.Assets[0].MinBalance != 1000 {
		t.Error("assets shared between clone and original")
	}
	if original.Income[0].Amount != 1800 || original.Deposits[0].Amount != 100 || original.Order[0].Order != 1 {
		t.Error("income, deposits or order shared between clone and original")
	}
	if original.RateSchedules[0].Assets[0] != "Brokerage" {
		t.Error("rate schedule assets shared between clone and original")
	}
	if original.Returns["stocks"][0] != 0.1 {
		t.Error("returns shared between clone and original")
	}
}

func TestCloneNilPlan(t *testing.T) {
	clone := Scenario{Name: "empty"}.Clone()
	if clone.Plan != nil || clone.Assets != nil || clone.Returns != nil {
		t.Error("expected nil fields to stay nil")
	}
}

func TestActiveWindows(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		stop   int
		month  int
		active bool
	}{
		{"before start", 12, 0, 11, false},
		{"at start", 12, 0, 12, true},
		{"unbounded", 1, 0, 600, true},
		{"at stop", 1, 3, 3, true},
		{"after stop", 1, 3, 4, false},
		{"zero start is always on", 0, 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income := IncomeSource{StartMonth: tt.start, StopMonth: tt.stop}
			deposit := DepositEvent{StartMonth: tt.start, StopMonth: tt.stop}
			schedule := RateSchedule{StartMonth: tt.start, StopMonth: tt.stop}
			if income.ActiveIn(tt.month) != tt.active || deposit.ActiveIn(tt.month) != tt.active || schedule.ActiveIn(tt.month) != tt.active {
				t.Errorf("ActiveIn(%d) with [%d,%d] expected %v", tt.month, tt.start, tt.stop, tt.active)
			}
		})
	}
}

func TestRateScheduleCovers(t *testing.T) {
	byName := RateSchedule{Assets: []string{"Savings"}}
	byType := RateSchedule{Type: "stocks"}
	savings := Asset{Name: "Savings", Type: "cash"}
	brokerage := Asset{Name: "Brokerage", Type: "stocks"}

	if !byName.Covers(savings) || byName.Covers(brokerage) {
		t.Error("name-targeted schedule mismatch")
	}
	if !byType.Covers(brokerage) || byType.Covers(savings) {
		t.Error("type-targeted schedule mismatch")
	}
}

func TestScenarioHelpers(t *testing.T) {
	s := baseScenario()
	if s.AssetIndex("Brokerage") != 1 || s.AssetIndex("missing") != -1 {
		t.Error("AssetIndex mismatch")
	}
	types := s.AssetTypes()
	if len(types) != 2 || types[0] != "cash" || types[1] != "stocks" {
		t.Errorf("AssetTypes() = %v", types)
	}
	if s.TotalBalance() != 170000 {
		t.Errorf("TotalBalance() = %v", s.TotalBalance())
	}
	if !s.Assets[0].CompoundsMonthly() || s.Assets[1].CompoundsMonthly() {
		t.Error("CompoundsMonthly mismatch")
	}
}

func TestValidateAcceptsBaseScenario(t *testing.T) {
	if err := baseScenario().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		field  string
	}{
		{"missing plan", func(s *Scenario) { s.Plan = nil }, "plan"},
		{"missing assets", func(s *Scenario) { s.Assets = nil }, "assets"},
		{"NaN expenses", func(s *Scenario) { s.Plan.MonthlyExpenses = math.NaN() }, "plan.monthly_expenses"},
		{"negative expenses", func(s *Scenario) { s.Plan.MonthlyExpenses = -1 }, "plan.monthly_expenses"},
		{"negative duration", func(s *Scenario) { s.Plan.DurationMonths = -1 }, "plan.duration_months"},
		{"bad start date", func(s *Scenario) { s.Plan.StartDate = "2025/01" }, "plan.start_date"},
		{"empty asset name", func(s *Scenario) { s.Assets[1].Name = " " }, "assets[1].name"},
		{"duplicate asset", func(s *Scenario) { s.Assets[1].Name = "Savings" }, "assets[1].name"},
		{"infinite balance", func(s *Scenario) { s.Assets[0].Balance = math.Inf(1) }, "assets[0].balance"},
		{"unknown compounding", func(s *Scenario) { s.Assets[0].Compounding = "daily" }, "assets[0].compounding"},
		{"income window inverted", func(s *Scenario) { s.Income[0].StopMonth = 3 }, "income[0]"},
		{"deposit without target", func(s *Scenario) { s.Deposits[0].Target = "" }, "deposits[0].target"},
		{"order unknown account", func(s *Scenario) { s.Order[0].Account = "Ghost" }, "order[0].account"},
		{"order negative weight", func(s *Scenario) { s.Order[0].Weight = -1 }, "order[0].weight"},
		{"schedule unknown asset", func(s *Scenario) { s.RateSchedules[0].Assets = []string{"Ghost"} }, "rate_schedules[0].assets[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			tt.mutate(&s)
			err := s.Validate()
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Field = %s, expected %s", validationErr.Field, tt.field)
			}
			if validationErr.Scenario != "base" {
				t.Errorf("Scenario = %s, expected base", validationErr.Scenario)
			}
		})
	}
}

func TestValidateAllowsOrderOnDepositTarget(t *testing.T) {
	s := Scenario{
		Plan:     &Plan{MonthlyExpenses: 0, DurationMonths: 1},
		Assets:   []Asset{},
		Deposits: []DepositEvent{{Target: "NewFund", Amount: 5000, StartMonth: 1, StopMonth: 1}},
		Order:    []WithdrawalOrderEntry{{Account: "NewFund", Order: 1}},
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "plan", Reason: "plan is required"}
	if err.Error() != "scenario <unnamed>: invalid plan: plan is required" {
		t.Errorf("Error() = %s", err.Error())
	}
}
