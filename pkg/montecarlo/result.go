package montecarlo

import (
	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/stats"
)

// Metric names used as keys of AnalysisResult.Statistics.
const (
	MetricFinalBalance   = "finalBalance"
	MetricSurvivalMonths = "survivalMonths"
	MetricMaxDrawdown    = "maxDrawdown"
)

// KeyScenarioLabels lists the representative trials, from the lowest final
// balance to the highest.
var KeyScenarioLabels = []string{"worst", "p10", "p25", "median", "p75", "p90", "best"}

// keyScenarioPercentiles gives the final-balance rank of each label.
var keyScenarioPercentiles = map[string]float64{
	"worst":  0,
	"p10":    10,
	"p25":    25,
	"median": 50,
	"p75":    75,
	"p90":    90,
	"best":   100,
}

// Trial is the outcome of one randomized simulation. Err is set when the
// trial failed, in which case the metrics are zero and Success is false.
type Trial struct {
	Index          int         `json:"index"`
	Seed           uint32      `json:"seed"`
	FinalBalance   float64     `json:"finalBalance"`
	SurvivalMonths int         `json:"survivalMonths"`
	DurationMonths int         `json:"durationMonths"`
	MaxDrawdown    float64     `json:"maxDrawdown"`
	Success        bool        `json:"success"`
	Err            *TrialError `json:"error,omitempty"`
}

// depleted reports whether the balance ran out before the plan ended.
func (t Trial) depleted() bool {
	return t.SurvivalMonths < t.DurationMonths
}

// KeyScenario is a representative trial re-simulated with its full ledger.
type KeyScenario struct {
	Trial  Trial            `json:"trial"`
	Result *cashflow.Result `json:"result"`
}

// SurvivalStatistics describes how long portfolios lasted.
type SurvivalStatistics struct {
	Distribution  stats.Distribution `json:"distribution"`
	DepletionRate float64            `json:"depletionRate"`
	SurvivalCurve []float64          `json:"survivalCurve"`
}

// RiskMetrics summarizes the loss tail of final balances and the worst
// drawdown observed.
type RiskMetrics struct {
	Confidence     float64 `json:"confidence"`
	ValueAtRisk    float64 `json:"valueAtRisk"`
	ConditionalVaR float64 `json:"conditionalVaR"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
}

// AnalysisResult aggregates a Monte Carlo run. Status distinguishes a
// completed run from a cancelled or failed one reporting partial results.
type AnalysisResult struct {
	RunID                string                        `json:"runId"`
	Status               RunState                      `json:"status"`
	Seed                 uint32                        `json:"seed"`
	ReturnModel          string                        `json:"returnModel,omitempty"`
	RequestedIterations  int                           `json:"requestedIterations"`
	Iterations           int                           `json:"iterations"`
	Clamped              bool                          `json:"clamped"`
	CompletedIterations  int                           `json:"completedIterations"`
	FailedIterations     int                           `json:"failedIterations"`
	TargetSurvivalMonths int                           `json:"targetSurvivalMonths"`
	SuccessRate          float64                       `json:"successRate"`
	TargetSuccessRate    float64                       `json:"targetSuccessRate"`
	MeetsTarget          bool                          `json:"meetsTarget"`
	Statistics           map[string]stats.Distribution `json:"statistics"`
	SurvivalStatistics   SurvivalStatistics            `json:"survivalStatistics"`
	RiskMetrics          RiskMetrics                   `json:"riskMetrics"`
	KeyScenarios         map[string]KeyScenario        `json:"keyScenarios"`
	TrialErrors          []*TrialError                 `json:"trialErrors,omitempty"`
}
