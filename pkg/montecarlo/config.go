package montecarlo

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
	"github.com/iwvelando/finance-montecarlo/pkg/random"
	"github.com/iwvelando/finance-montecarlo/pkg/returns"
)

// DefaultConfidenceIntervals are the percentiles reported when none are
// configured.
var DefaultConfidenceIntervals = []float64{5, 10, 25, 50, 75, 90, 95}

// ReturnModelConfig selects a return model and its parameters.
type ReturnModelConfig struct {
	Type   string              `mapstructure:"type" yaml:"type" json:"type"`
	Config returns.ModelConfig `mapstructure:"config" yaml:"config,omitempty" json:"config,omitempty"`
}

// Config controls a Monte Carlo run. Zero values select defaults. Rates and
// confidences accept either fractions or percentages.
type Config struct {
	Iterations           int                `mapstructure:"iterations" yaml:"iterations,omitempty" json:"iterations,omitempty"`
	MaxIterations        int                `mapstructure:"max_iterations" yaml:"max_iterations,omitempty" json:"maxIterations,omitempty"`
	RandomSeed           *int64             `mapstructure:"random_seed" yaml:"random_seed,omitempty" json:"randomSeed,omitempty"`
	TargetSurvivalMonths int                `mapstructure:"target_survival_months" yaml:"target_survival_months,omitempty" json:"targetSurvivalMonths,omitempty"`
	TargetSuccessRate    float64            `mapstructure:"target_success_rate" yaml:"target_success_rate,omitempty" json:"targetSuccessRate,omitempty"`
	ConfidenceIntervals  []float64          `mapstructure:"confidence_intervals" yaml:"confidence_intervals,omitempty" json:"confidenceIntervals,omitempty"`
	RiskConfidence       float64            `mapstructure:"risk_confidence" yaml:"risk_confidence,omitempty" json:"riskConfidence,omitempty"`
	BatchSize            int                `mapstructure:"batch_size" yaml:"batch_size,omitempty" json:"batchSize,omitempty"`
	Workers              int                `mapstructure:"workers" yaml:"workers,omitempty" json:"workers,omitempty"`
	TrialTimeoutSeconds  float64            `mapstructure:"trial_timeout_seconds" yaml:"trial_timeout_seconds,omitempty" json:"trialTimeoutSeconds,omitempty"`
	FailureThreshold     float64            `mapstructure:"failure_threshold" yaml:"failure_threshold,omitempty" json:"failureThreshold,omitempty"`
	ReturnModel          *ReturnModelConfig `mapstructure:"return_model" yaml:"return_model,omitempty" json:"returnModel,omitempty"`
}

// settings is a Config with defaults applied and every value checked.
type settings struct {
	requested        int
	iterations       int
	clamped          bool
	seed             uint32
	target           int
	targetRate       float64
	percentiles      []float64
	riskConfidence   float64
	batchSize        int
	workers          int
	timeout          time.Duration
	failureThreshold float64
	model            returns.Model
	modelConfig      returns.ModelConfig
}

func configErr(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// resolve applies defaults and validates c. The target survival horizon is
// resolved per trial, since a trial may override the plan duration.
func (c Config) resolve() (settings, error) {
	var s settings

	maxIterations := c.MaxIterations
	switch {
	case maxIterations < 0:
		return s, configErr("maxIterations", "must not be negative, got %d", maxIterations)
	case maxIterations == 0:
		maxIterations = constants.DefaultMaxIterations
	case maxIterations > constants.HardMaxIterations:
		maxIterations = constants.HardMaxIterations
	}

	s.requested = c.Iterations
	if s.requested < 0 {
		return s, configErr("iterations", "must not be negative, got %d", s.requested)
	}
	if s.requested == 0 {
		s.requested = constants.DefaultIterations
	}
	s.iterations = s.requested
	if s.iterations > maxIterations {
		s.iterations = maxIterations
		s.clamped = true
	}

	if c.RandomSeed != nil {
		if *c.RandomSeed < 0 || *c.RandomSeed > math.MaxUint32 {
			return s, configErr("randomSeed", "must be within [0, %d], got %d", uint32(math.MaxUint32), *c.RandomSeed)
		}
		s.seed = uint32(*c.RandomSeed)
	} else {
		s.seed = random.ClockSeed()
	}

	s.target = c.TargetSurvivalMonths
	if s.target < 0 {
		return s, configErr("targetSurvivalMonths", "must not be negative, got %d", s.target)
	}
	if s.target == 0 {
		s.target = constants.DefaultTargetSurvivalMonths
	}

	s.targetRate = mathutil.ToFraction(c.TargetSuccessRate)
	if s.targetRate < 0 || s.targetRate > 1 {
		return s, configErr("targetSuccessRate", "must be within [0, 1], got %v", c.TargetSuccessRate)
	}
	if s.targetRate == 0 {
		s.targetRate = constants.DefaultTargetSuccessRate
	}

	s.percentiles = c.ConfidenceIntervals
	if len(s.percentiles) == 0 {
		s.percentiles = DefaultConfidenceIntervals
	}
	for i, p := range s.percentiles {
		if !mathutil.IsFinite(p) || p < 0 || p > 100 {
			return s, configErr(fmt.Sprintf("confidenceIntervals[%d]", i), "must be within [0, 100], got %v", p)
		}
	}

	s.riskConfidence = mathutil.ToFraction(c.RiskConfidence)
	if s.riskConfidence < 0 || s.riskConfidence >= 1 {
		return s, configErr("riskConfidence", "must be within (0, 1), got %v", c.RiskConfidence)
	}
	if s.riskConfidence == 0 {
		s.riskConfidence = constants.DefaultRiskConfidence
	}

	s.batchSize = c.BatchSize
	if s.batchSize < 0 {
		return s, configErr("batchSize", "must not be negative, got %d", s.batchSize)
	}
	if s.batchSize == 0 {
		s.batchSize = constants.DefaultBatchSize
	}

	s.workers = c.Workers
	if s.workers < 0 {
		return s, configErr("workers", "must not be negative, got %d", s.workers)
	}
	if s.workers == 0 {
		s.workers = runtime.NumCPU()
	}

	timeout := c.TrialTimeoutSeconds
	if timeout < 0 || !mathutil.IsFinite(timeout) {
		return s, configErr("trialTimeoutSeconds", "must be a positive number, got %v", timeout)
	}
	if timeout == 0 {
		timeout = constants.DefaultTrialTimeoutSeconds
	}
	s.timeout = time.Duration(timeout * float64(time.Second))

	s.failureThreshold = mathutil.ToFraction(c.FailureThreshold)
	if s.failureThreshold < 0 || s.failureThreshold > 1 {
		return s, configErr("failureThreshold", "must be within [0, 1], got %v", c.FailureThreshold)
	}
	if s.failureThreshold == 0 {
		s.failureThreshold = constants.DefaultFailureThreshold
	}

	if c.ReturnModel != nil && c.ReturnModel.Type != "" {
		model, err := returns.New(c.ReturnModel.Type)
		if err != nil {
			return s, &ConfigurationError{Field: "returnModel.type", Reason: "unsupported return model", Err: err}
		}
		s.model = model
		s.modelConfig = c.ReturnModel.Config
	}

	return s, nil
}

// targetFor clamps the survival target to a plan's duration.
func (s settings) targetFor(duration int) int {
	if s.target > duration {
		return duration
	}
	return s.target
}
