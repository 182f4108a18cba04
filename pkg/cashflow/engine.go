// Package cashflow runs the deterministic month-stepped household ledger:
// deposits, income, shortfall withdrawals, and monthly compounding.
package cashflow

import (
	"context"
	"fmt"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/datetime"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
	"go.uber.org/zap"
)

// ctxCheckInterval is how many months pass between cancellation checks.
const ctxCheckInterval = constants.MonthsPerYear

// Engine simulates scenarios. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new cash-flow engine.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// ledgerState is the mutable per-run copy of the scenario's assets.
type ledgerState struct {
	assets []scenario.Asset
	index  map[string]int
}

func newLedgerState(assets []scenario.Asset) *ledgerState {
	state := &ledgerState{
		assets: assets,
		index:  make(map[string]int, len(assets)),
	}
	for i, asset := range assets {
		state.index[asset.Name] = i
	}
	return state
}

// ensure returns the index of the named asset, creating a zero-balance,
// zero-rate dynamic asset if it does not exist.
func (s *ledgerState) ensure(name string) (int, bool) {
	if idx, ok := s.index[name]; ok {
		return idx, false
	}
	s.assets = append(s.assets, scenario.Asset{Name: name, Type: constants.DynamicAssetType})
	idx := len(s.assets) - 1
	s.index[name] = idx
	return idx, true
}

// Simulate runs the scenario to completion.
func (e *Engine) Simulate(s scenario.Scenario) (*Result, error) {
	return e.SimulateContext(context.Background(), s)
}

// SimulateContext runs the scenario, returning ctx.Err() if the context ends
// before the final month. The input scenario is never modified.
func (e *Engine) SimulateContext(ctx context.Context, s scenario.Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s = s.Clone()

	duration := s.Plan.DurationMonths
	dates, err := datetime.MonthLabels(s.Plan.StartDate, duration)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger dates: %w", err)
	}

	state := newLedgerState(s.Assets)
	groups := groupByRank(s.Order)
	result := &Result{
		Scenario:       s.Name,
		Ledger:         make([]LedgerEntry, 0, duration),
		BalanceHistory: make(map[string][]float64, len(state.assets)),
	}
	for _, asset := range state.assets {
		result.AssetOrder = append(result.AssetOrder, asset.Name)
		result.BalanceHistory[asset.Name] = make([]float64, 0, duration)
	}

	unmetLogged := false
	for m := 0; m < duration; m++ {
		if m%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// Activation windows are 1-indexed: month m of the loop is month m+1
		// of the plan.
		planMonth := m + 1
		entry := LedgerEntry{Month: m, Date: dates[m], Expenses: s.Plan.MonthlyExpenses}

		for _, deposit := range s.Deposits {
			if !deposit.ActiveIn(planMonth) {
				continue
			}
			idx, created := state.ensure(deposit.Target)
			if created {
				result.AssetOrder = append(result.AssetOrder, deposit.Target)
				result.BalanceHistory[deposit.Target] = make([]float64, m, duration)
				e.logger.Debug("created dynamic asset from deposit",
					zap.String("op", "cashflow.Simulate"),
					zap.String("scenario", s.Name),
					zap.String("asset", deposit.Target),
					zap.Int("month", m),
				)
			}
			state.assets[idx].Balance += deposit.Amount
			entry.Deposits += deposit.Amount
		}

		for _, income := range s.Income {
			if income.ActiveIn(planMonth) {
				entry.Income += income.Amount
			}
		}

		if need := entry.Expenses - entry.Income; need > 0 {
			entry.Need = need
			withdrawals, unmet := newWithdrawer(state).cover(groups, need)
			entry.Withdrawals = withdrawals
			entry.Shortfall = unmet
			for _, w := range withdrawals {
				entry.Withdrawn += w.Amount
			}
			if unmet > 0 && !unmetLogged {
				unmetLogged = true
				e.logger.Debug("shortfall not fully covered",
					zap.String("op", "cashflow.Simulate"),
					zap.String("scenario", s.Name),
					zap.Int("month", m),
					zap.Float64("unmet", unmet),
				)
			}
		}

		for i := range state.assets {
			rate, ok := monthlyRate(s, state.assets[i], m)
			if !ok {
				continue
			}
			interest := state.assets[i].Balance * rate / constants.MonthsPerYear
			state.assets[i].Balance += interest
			entry.Interest += interest
		}

		for _, asset := range state.assets {
			result.BalanceHistory[asset.Name] = append(result.BalanceHistory[asset.Name], asset.Balance)
		}
		result.Ledger = append(result.Ledger, entry)
	}

	e.logger.Debug("simulation complete",
		zap.String("op", "cashflow.Simulate"),
		zap.String("scenario", s.Name),
		zap.Int("months", duration),
		zap.Int("assets", len(state.assets)),
	)
	return result, nil
}

// monthlyRate resolves the annual rate that applies to asset in loop month m
// and whether it compounds at all. A generated return series for the asset's
// type wins over an active rate schedule, which wins over the asset's own rate.
func monthlyRate(s scenario.Scenario, asset scenario.Asset, m int) (float64, bool) {
	if series, ok := s.Returns[asset.Type]; ok && asset.Type != "" && len(series) > 0 {
		year := m / constants.MonthsPerYear
		if year >= len(series) {
			year = len(series) - 1
		}
		return series[year], true
	}

	planMonth := m + 1
	rate, scheduled := 0.0, false
	for _, schedule := range s.RateSchedules {
		if schedule.ActiveIn(planMonth) && schedule.Covers(asset) {
			rate, scheduled = schedule.Rate, true
		}
	}
	if scheduled {
		return rate, true
	}

	if asset.CompoundsMonthly() && asset.InterestRate != 0 {
		return asset.InterestRate, true
	}
	return 0, false
}
