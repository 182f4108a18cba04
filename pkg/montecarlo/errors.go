package montecarlo

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when Run is called on an orchestrator that is
// already running an analysis.
var ErrRunInProgress = errors.New("monte carlo run already in progress")

// ConfigurationError reports an invalid Monte Carlo setting, detected before
// any trial runs.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid monte carlo configuration %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid monte carlo configuration %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TrialError records a single failed trial. Seed reproduces the trial.
type TrialError struct {
	Index    int    `json:"index"`
	Seed     uint32 `json:"seed"`
	Scenario string `json:"scenario,omitempty"`
	TimedOut bool   `json:"timedOut,omitempty"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

func newTrialError(index int, seed uint32, scenarioName string, err error) *TrialError {
	return &TrialError{
		Index:    index,
		Seed:     seed,
		Scenario: scenarioName,
		Message:  err.Error(),
		Err:      err,
	}
}

func (e *TrialError) Error() string {
	kind := "failed"
	if e.TimedOut {
		kind = "timed out"
	}
	return fmt.Sprintf("trial %d (seed %d, scenario %q) %s: %s", e.Index, e.Seed, e.Scenario, kind, e.Message)
}

func (e *TrialError) Unwrap() error {
	return e.Err
}

// BatchFailure aborts a run whose trial failure rate exceeded the configured
// threshold. Partial holds the aggregate of the trials that did run.
type BatchFailure struct {
	Failed    int
	Completed int
	Threshold float64
	Partial   *AnalysisResult
}

func (e *BatchFailure) Error() string {
	return fmt.Sprintf("monte carlo run aborted: %d of %d trials failed, above the %.1f%% threshold",
		e.Failed, e.Completed, e.Threshold*100)
}
