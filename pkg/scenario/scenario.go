// Package scenario defines the household scenario consumed by the cash-flow
// engine: assets, income, deposits, withdrawal order, and plan.
package scenario

import (
	"github.com/iwvelando/finance-montecarlo/pkg/constants"
)

// Asset is a balance-carrying account. A negative balance represents a
// scheduled future expense; withdrawing against it moves it toward zero.
type Asset struct {
	Name         string   `mapstructure:"name" yaml:"name" json:"name"`
	Balance      float64  `mapstructure:"balance" yaml:"balance" json:"balance"`
	InterestRate float64  `mapstructure:"interest_rate" yaml:"interest_rate,omitempty" json:"interest_rate,omitempty"`
	Compounding  string   `mapstructure:"compounding" yaml:"compounding,omitempty" json:"compounding,omitempty"`
	MinBalance   *float64 `mapstructure:"min_balance" yaml:"min_balance,omitempty" json:"min_balance,omitempty"`
	Type         string   `mapstructure:"type" yaml:"type,omitempty" json:"type,omitempty"`
}

// CompoundsMonthly reports whether the asset accrues interest each month.
func (a Asset) CompoundsMonthly() bool {
	return a.Compounding == constants.CompoundingMonthly
}

// IncomeSource pays Amount every month in [StartMonth, StopMonth]. Months are
// 1-indexed; StopMonth 0 means the income never stops.
type IncomeSource struct {
	Name       string  `mapstructure:"name" yaml:"name" json:"name"`
	Amount     float64 `mapstructure:"amount" yaml:"amount" json:"amount"`
	StartMonth int     `mapstructure:"start_month" yaml:"start_month,omitempty" json:"start_month,omitempty"`
	StopMonth  int     `mapstructure:"stop_month" yaml:"stop_month,omitempty" json:"stop_month,omitempty"`
}

// ActiveIn reports whether the income pays in the given 1-indexed month.
func (i IncomeSource) ActiveIn(month int) bool {
	return activeIn(i.StartMonth, i.StopMonth, month)
}

// DepositEvent adds Amount to Target every active month, creating Target as a
// zero-balance dynamic asset the first time it is referenced.
type DepositEvent struct {
	Target     string  `mapstructure:"target" yaml:"target" json:"target"`
	Amount     float64 `mapstructure:"amount" yaml:"amount" json:"amount"`
	StartMonth int     `mapstructure:"start_month" yaml:"start_month,omitempty" json:"start_month,omitempty"`
	StopMonth  int     `mapstructure:"stop_month" yaml:"stop_month,omitempty" json:"stop_month,omitempty"`
}

// ActiveIn reports whether the deposit lands in the given 1-indexed month.
func (d DepositEvent) ActiveIn(month int) bool {
	return activeIn(d.StartMonth, d.StopMonth, month)
}

// WithdrawalOrderEntry ranks an account for covering shortfalls. Lower Order
// values are drawn first; entries sharing a rank with a positive Weight split
// the shortfall proportionally.
type WithdrawalOrderEntry struct {
	Account string  `mapstructure:"account" yaml:"account" json:"account"`
	Order   int     `mapstructure:"order" yaml:"order" json:"order"`
	Weight  float64 `mapstructure:"weight" yaml:"weight,omitempty" json:"weight,omitempty"`
}

// RateSchedule overrides the interest rate of the named assets, and of every
// asset of Type, while it is active. Months are 1-indexed.
type RateSchedule struct {
	Name       string   `mapstructure:"name" yaml:"name" json:"name"`
	Rate       float64  `mapstructure:"rate" yaml:"rate" json:"rate"`
	StartMonth int      `mapstructure:"start_month" yaml:"start_month,omitempty" json:"start_month,omitempty"`
	StopMonth  int      `mapstructure:"stop_month" yaml:"stop_month,omitempty" json:"stop_month,omitempty"`
	Assets     []string `mapstructure:"assets" yaml:"assets,omitempty" json:"assets,omitempty"`
	Type       string   `mapstructure:"type" yaml:"type,omitempty" json:"type,omitempty"`
}

// ActiveIn reports whether the schedule applies in the given 1-indexed month.
func (r RateSchedule) ActiveIn(month int) bool {
	return activeIn(r.StartMonth, r.StopMonth, month)
}

// Covers reports whether the schedule targets the asset.
func (r RateSchedule) Covers(asset Asset) bool {
	if r.Type != "" && r.Type == asset.Type {
		return true
	}
	for _, name := range r.Assets {
		if name == asset.Name {
			return true
		}
	}
	return false
}

// Plan holds the household's spending need and horizon.
type Plan struct {
	MonthlyExpenses float64 `mapstructure:"monthly_expenses" yaml:"monthly_expenses" json:"monthly_expenses"`
	DurationMonths  int     `mapstructure:"duration_months" yaml:"duration_months" json:"duration_months"`
	StartDate       string  `mapstructure:"start_date" yaml:"start_date,omitempty" json:"start_date,omitempty"`
}

// Scenario is the complete input to a simulation. Returns maps an asset type
// to one annual return per simulated year and takes precedence over both the
// asset's own rate and any rate schedule.
type Scenario struct {
	Name          string                 `mapstructure:"name" yaml:"name,omitempty" json:"name,omitempty"`
	Plan          *Plan                  `mapstructure:"plan" yaml:"plan" json:"plan"`
	Assets        []Asset                `mapstructure:"assets" yaml:"assets" json:"assets"`
	Income        []IncomeSource         `mapstructure:"income" yaml:"income,omitempty" json:"income,omitempty"`
	Deposits      []DepositEvent         `mapstructure:"deposits" yaml:"deposits,omitempty" json:"deposits,omitempty"`
	Order         []WithdrawalOrderEntry `mapstructure:"order" yaml:"order,omitempty" json:"order,omitempty"`
	RateSchedules []RateSchedule         `mapstructure:"rate_schedules" yaml:"rate_schedules,omitempty" json:"rate_schedules,omitempty"`
	Returns       map[string][]float64   `mapstructure:"returns" yaml:"returns,omitempty" json:"returns,omitempty"`
}

// Clone returns a deep copy that shares no mutable state with s.
func (s Scenario) Clone() Scenario {
	out := s
	if s.Plan != nil {
		plan := *s.Plan
		out.Plan = &plan
	}
	if s.Assets != nil {
		out.Assets = make([]Asset, len(s.Assets))
		for i, asset := range s.Assets {
			if asset.MinBalance != nil {
				floor := *asset.MinBalance
				asset.MinBalance = &floor
			}
			out.Assets[i] = asset
		}
	}
	out.Income = append([]IncomeSource(nil), s.Income...)
	out.Deposits = append([]DepositEvent(nil), s.Deposits...)
	out.Order = append([]WithdrawalOrderEntry(nil), s.Order...)
	if s.RateSchedules != nil {
		out.RateSchedules = make([]RateSchedule, len(s.RateSchedules))
		for i, schedule := range s.RateSchedules {
			schedule.Assets = append([]string(nil), schedule.Assets...)
			out.RateSchedules[i] = schedule
		}
	}
	if s.Returns != nil {
		out.Returns = make(map[string][]float64, len(s.Returns))
		for assetType, series := range s.Returns {
			out.Returns[assetType] = append([]float64(nil), series...)
		}
	}
	return out
}

// AssetIndex returns the position of the named asset, or -1.
func (s Scenario) AssetIndex(name string) int {
	for i := range s.Assets {
		if s.Assets[i].Name == name {
			return i
		}
	}
	return -1
}

// AssetTypes lists the distinct non-empty asset types in declaration order.
func (s Scenario) AssetTypes() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, asset := range s.Assets {
		if asset.Type == "" {
			continue
		}
		if _, ok := seen[asset.Type]; ok {
			continue
		}
		seen[asset.Type] = struct{}{}
		types = append(types, asset.Type)
	}
	return types
}

// TotalBalance sums every asset balance, planned expenses included.
func (s Scenario) TotalBalance() float64 {
	total := 0.0
	for _, asset := range s.Assets {
		total += asset.Balance
	}
	return total
}

func activeIn(start, stop, month int) bool {
	if month < start {
		return false
	}
	return stop <= 0 || month <= stop
}
