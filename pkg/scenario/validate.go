package scenario

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/datetime"
	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
)

// ValidationError reports a malformed scenario. Field is a dotted path such as
// "order[2].account".
type ValidationError struct {
	Scenario string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	name := e.Scenario
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("scenario %s: invalid %s: %s", name, e.Field, e.Reason)
}

// Validate checks s before simulation. Order entries may reference a declared
// asset or a deposit target, since deposits create their target on first use.
func (s Scenario) Validate() error {
	fail := func(field, format string, args ...interface{}) error {
		return &ValidationError{Scenario: s.Name, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if s.Plan == nil {
		return fail("plan", "plan is required")
	}
	if s.Assets == nil {
		return fail("assets", "assets are required")
	}
	if !mathutil.IsFinite(s.Plan.MonthlyExpenses) {
		return fail("plan.monthly_expenses", "must be numeric, got %v", s.Plan.MonthlyExpenses)
	}
	if s.Plan.MonthlyExpenses < 0 {
		return fail("plan.monthly_expenses", "must not be negative, got %v", s.Plan.MonthlyExpenses)
	}
	if s.Plan.DurationMonths < 0 {
		return fail("plan.duration_months", "must not be negative, got %d", s.Plan.DurationMonths)
	}
	if s.Plan.StartDate != "" {
		if err := datetime.ValidateMonth(s.Plan.StartDate); err != nil {
			return fail("plan.start_date", "%v", err)
		}
	}

	known := make(map[string]struct{}, len(s.Assets))
	for i, asset := range s.Assets {
		field := fmt.Sprintf("assets[%d]", i)
		if strings.TrimSpace(asset.Name) == "" {
			return fail(field+".name", "name is required")
		}
		if _, dup := known[asset.Name]; dup {
			return fail(field+".name", "duplicate asset name %q", asset.Name)
		}
		known[asset.Name] = struct{}{}
		if !mathutil.IsFinite(asset.Balance) {
			return fail(field+".balance", "must be numeric, got %v", asset.Balance)
		}
		if !mathutil.IsFinite(asset.InterestRate) {
			return fail(field+".interest_rate", "must be numeric, got %v", asset.InterestRate)
		}
		if asset.Compounding != "" && asset.Compounding != constants.CompoundingMonthly {
			return fail(field+".compounding", "unsupported compounding %q (expected %q or empty)", asset.Compounding, constants.CompoundingMonthly)
		}
	}

	for i, income := range s.Income {
		field := fmt.Sprintf("income[%d]", i)
		if !mathutil.IsFinite(income.Amount) {
			return fail(field+".amount", "must be numeric, got %v", income.Amount)
		}
		if err := checkWindow(income.StartMonth, income.StopMonth); err != "" {
			return fail(field, "%s", err)
		}
	}

	targets := make(map[string]struct{}, len(s.Deposits))
	for i, deposit := range s.Deposits {
		field := fmt.Sprintf("deposits[%d]", i)
		if strings.TrimSpace(deposit.Target) == "" {
			return fail(field+".target", "target is required")
		}
		if !mathutil.IsFinite(deposit.Amount) {
			return fail(field+".amount", "must be numeric, got %v", deposit.Amount)
		}
		if err := checkWindow(deposit.StartMonth, deposit.StopMonth); err != "" {
			return fail(field, "%s", err)
		}
		targets[deposit.Target] = struct{}{}
	}

	for i, entry := range s.Order {
		field := fmt.Sprintf("order[%d]", i)
		_, declared := known[entry.Account]
		_, deposited := targets[entry.Account]
		if !declared && !deposited {
			return fail(field+".account", "references unknown asset %q", entry.Account)
		}
		if entry.Weight < 0 || !mathutil.IsFinite(entry.Weight) {
			return fail(field+".weight", "must be a non-negative number, got %v", entry.Weight)
		}
	}

	for i, schedule := range s.RateSchedules {
		field := fmt.Sprintf("rate_schedules[%d]", i)
		if !mathutil.IsFinite(schedule.Rate) {
			return fail(field+".rate", "must be numeric, got %v", schedule.Rate)
		}
		if err := checkWindow(schedule.StartMonth, schedule.StopMonth); err != "" {
			return fail(field, "%s", err)
		}
		for j, name := range schedule.Assets {
			_, declared := known[name]
			_, deposited := targets[name]
			if !declared && !deposited {
				return fail(fmt.Sprintf("%s.assets[%d]", field, j), "references unknown asset %q", name)
			}
		}
	}

	return nil
}

func checkWindow(start, stop int) string {
	if start < 0 {
		return fmt.Sprintf("start_month must not be negative, got %d", start)
	}
	if stop < 0 {
		return fmt.Sprintf("stop_month must not be negative, got %d", stop)
	}
	if stop > 0 && stop < start {
		return fmt.Sprintf("stop_month %d precedes start_month %d", stop, start)
	}
	return ""
}
