// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
)

// ValidateWindow checks if an activation window opens inside the plan.
func ValidateWindow(kind, name string, start, stop, duration int) []string {
	var warnings []string

	if start > duration {
		warnings = append(warnings, fmt.Sprintf("%s '%s' starts after the plan ends (month %d > %d) - it will never apply",
			kind, name, start, duration))
	}

	if stop > 0 && stop > duration {
		warnings = append(warnings, fmt.Sprintf("%s '%s' stops after the plan ends (month %d > %d)",
			kind, name, stop, duration))
	}

	return warnings
}

// ScenarioWarnings reports legal but suspicious settings in a scenario. It
// assumes the scenario already passed scenario.Validate.
func ScenarioWarnings(s scenario.Scenario) []string {
	var warnings []string
	if s.Plan == nil {
		return warnings
	}
	duration := s.Plan.DurationMonths

	ordered := make(map[string]struct{}, len(s.Order))
	for _, entry := range s.Order {
		if _, dup := ordered[entry.Account]; dup {
			warnings = append(warnings, fmt.Sprintf("Account '%s' appears more than once in the withdrawal order - it may be drawn twice in a month", entry.Account))
		}
		ordered[entry.Account] = struct{}{}
	}

	for _, asset := range s.Assets {
		if asset.InterestRate != 0 && !asset.CompoundsMonthly() {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' has an interest rate but compounding is %q - no interest will accrue unless a schedule or return series applies",
				asset.Name, asset.Compounding))
		}
		if _, ok := ordered[asset.Name]; !ok && asset.Balance != 0 {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' is not in the withdrawal order - it will never cover a shortfall", asset.Name))
		}
		if asset.MinBalance != nil && *asset.MinBalance > asset.Balance {
			warnings = append(warnings, fmt.Sprintf("Asset '%s' starts below its minimum balance (%.2f < %.2f)",
				asset.Name, asset.Balance, *asset.MinBalance))
		}
	}

	for _, income := range s.Income {
		warnings = append(warnings, ValidateWindow("Income", income.Name, income.StartMonth, income.StopMonth, duration)...)
	}
	for _, deposit := range s.Deposits {
		warnings = append(warnings, ValidateWindow("Deposit", deposit.Target, deposit.StartMonth, deposit.StopMonth, duration)...)
	}
	for _, schedule := range s.RateSchedules {
		warnings = append(warnings, ValidateWindow("Rate schedule", schedule.Name, schedule.StartMonth, schedule.StopMonth, duration)...)
	}

	years := (duration + constants.MonthsPerYear - 1) / constants.MonthsPerYear
	for _, assetType := range s.AssetTypes() {
		series, ok := s.Returns[assetType]
		if ok && len(series) > 0 && len(series) < years {
			warnings = append(warnings, fmt.Sprintf("Return series for type '%s' covers %d of %d years - the last return is reused",
				assetType, len(series), years))
		}
	}

	return warnings
}
