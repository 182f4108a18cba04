// Package output renders simulation ledgers and Monte Carlo analyses as
// pretty tables, CSV, or JSON.
package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/format"
	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/iwvelando/finance-montecarlo/pkg/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable rather than machine-readable ledger.
func PrettyFormat(w io.Writer, result *cashflow.Result) {
	p := message.NewPrinter(language.English)
	name := result.Scenario
	if name == "" {
		name = "(unnamed)"
	}
	totals := result.TotalBalances()

	fmt.Fprintf(w, "--- Results for scenario %s ---\n", name)
	fmt.Fprintf(w, "Month | Date    | Income        | Expenses      | Shortfall     | Unmet         | Total Balance   | Withdrawals\n")
	fmt.Fprintf(w, "_____ | _______ | _____________ | _____________ | _____________ | _____________ | _______________ | ___________\n")
	for m, entry := range result.Ledger {
		date := entry.Date
		if date == "" {
			date = "-"
		}
		_, _ = p.Fprintf(w, "%5d | %-7s | $%12.2f | $%12.2f | $%12.2f | $%12.2f | $%14.2f | %s\n",
			entry.Month, date, mathutil.Round(entry.Income), mathutil.Round(entry.Expenses),
			mathutil.Round(entry.Need), mathutil.Round(entry.Shortfall), mathutil.Round(totals[m]),
			describeWithdrawals(entry.Withdrawals))
	}

	fmt.Fprintf(w, "\nFinal balances after %d months:\n", result.Months())
	for _, asset := range result.AssetOrder {
		fmt.Fprintf(w, "  %s: %s\n", asset, format.Currency(result.FinalBalances()[asset]))
	}
	fmt.Fprintf(w, "  Total: %s\n", format.Currency(result.FinalTotal()))
	if unmet := result.TotalUnmet(); unmet > 0 {
		fmt.Fprintf(w, "  Unmet expenses: %s\n", format.Currency(unmet))
	}
}

func describeWithdrawals(withdrawals []cashflow.Withdrawal) string {
	parts := make([]string, 0, len(withdrawals))
	for _, wd := range withdrawals {
		parts = append(parts, fmt.Sprintf("%s %s", wd.From, format.Currency(wd.Amount)))
	}
	return strings.Join(parts, ", ")
}

// PrettyMonteCarlo writes a human-readable summary of a Monte Carlo analysis.
func PrettyMonteCarlo(w io.Writer, scenarioName string, result *montecarlo.AnalysisResult) {
	if scenarioName == "" {
		scenarioName = "(unnamed)"
	}
	fmt.Fprintf(w, "--- Monte Carlo analysis for scenario %s ---\n", scenarioName)
	fmt.Fprintf(w, "Run: %s (%s)\n", result.RunID, result.Status)
	model := result.ReturnModel
	if model == "" {
		model = "none"
	}
	fmt.Fprintf(w, "Seed: %d, return model: %s\n", result.Seed, model)
	fmt.Fprintf(w, "Trials: %d of %d completed, %d failed", result.CompletedIterations, result.Iterations, result.FailedIterations)
	if result.Clamped {
		fmt.Fprintf(w, " (requested %d, clamped to ceiling)", result.RequestedIterations)
	}
	fmt.Fprintf(w, "\n")

	verdict := "not met"
	if result.MeetsTarget {
		verdict = "met"
	}
	fmt.Fprintf(w, "Success rate: %s (target %s, %s) surviving %s\n",
		format.Percent(result.SuccessRate), format.Percent(result.TargetSuccessRate), verdict,
		format.Months(float64(result.TargetSurvivalMonths)))
	survival := result.SurvivalStatistics
	fmt.Fprintf(w, "Survival: median %s, depletion rate %s\n",
		format.Months(survival.Distribution.Median), format.Percent(survival.DepletionRate))

	if dist, ok := result.Statistics[montecarlo.MetricFinalBalance]; ok {
		fmt.Fprintf(w, "\nFinal balance:\n")
		writeDistribution(w, dist, format.Currency)
	}
	if dist, ok := result.Statistics[montecarlo.MetricMaxDrawdown]; ok {
		fmt.Fprintf(w, "\nMax drawdown:\n")
		writeDistribution(w, dist, format.Percent)
	}

	risk := result.RiskMetrics
	fmt.Fprintf(w, "\nRisk at %s confidence:\n", format.Percent(risk.Confidence))
	fmt.Fprintf(w, "  Value at risk: %s\n", format.Currency(risk.ValueAtRisk))
	fmt.Fprintf(w, "  Conditional VaR: %s\n", format.Currency(risk.ConditionalVaR))
	fmt.Fprintf(w, "  Worst drawdown: %s\n", format.Percent(risk.MaxDrawdown))

	if len(result.KeyScenarios) > 0 {
		fmt.Fprintf(w, "\nKey scenarios:\n")
		for _, label := range montecarlo.KeyScenarioLabels {
			ks, ok := result.KeyScenarios[label]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %-6s trial %d (seed %d): final %s, survived %s\n",
				label, ks.Trial.Index, ks.Trial.Seed, format.Currency(ks.Trial.FinalBalance),
				format.Months(float64(ks.Trial.SurvivalMonths)))
		}
	}

	for _, trialErr := range result.TrialErrors {
		fmt.Fprintf(w, "Warning: %v\n", trialErr)
	}
}

func writeDistribution(w io.Writer, dist stats.Distribution, render func(float64) string) {
	fmt.Fprintf(w, "  Mean %s, median %s, std dev %s\n", render(dist.Mean), render(dist.Median), render(dist.StdDev))
	fmt.Fprintf(w, "  Min %s, max %s\n", render(dist.Min), render(dist.Max))

	keys := make([]string, 0, len(dist.Percentiles))
	for key := range dist.Percentiles {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return percentileOf(keys[i]) < percentileOf(keys[j])
	})
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", key, render(dist.Percentiles[key])))
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(parts, ", "))
	}
}

// percentileOf recovers p from a percentile key such as "p12.5".
func percentileOf(key string) float64 {
	p, err := strconv.ParseFloat(strings.TrimPrefix(key, "p"), 64)
	if err != nil {
		return 0
	}
	return p
}
