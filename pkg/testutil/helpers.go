// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
)

// FindKeyScenario finds a key scenario by label in an analysis.
// Returns a pointer to the key scenario if found, nil otherwise.
func FindKeyScenario(result *montecarlo.AnalysisResult, label string) *montecarlo.KeyScenario {
	if result == nil {
		return nil
	}
	ks, ok := result.KeyScenarios[label]
	if !ok {
		return nil
	}
	return &ks
}

// BalanceAt returns an asset's balance after the given 0-indexed month.
func BalanceAt(result *cashflow.Result, asset string, month int) (float64, bool) {
	if result == nil {
		return 0, false
	}
	series, ok := result.BalanceHistory[asset]
	if !ok || month < 0 || month >= len(series) {
		return 0, false
	}
	return series[month], true
}
