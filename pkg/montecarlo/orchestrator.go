// Package montecarlo runs many randomized cash-flow simulations of one
// scenario and aggregates them into success rates, distributions, risk
// metrics and representative ledgers.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/constants"
	"github.com/iwvelando/finance-montecarlo/pkg/random"
	"github.com/iwvelando/finance-montecarlo/pkg/returns"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
	"github.com/iwvelando/finance-montecarlo/pkg/stats"
	"go.uber.org/zap"
)

// maxReportedTrialErrors caps the trial errors carried in a result.
const maxReportedTrialErrors = 100

// Simulator runs one cash-flow simulation. *cashflow.Engine implements it.
type Simulator interface {
	SimulateContext(ctx context.Context, s scenario.Scenario) (*cashflow.Result, error)
}

// Recorder receives run telemetry. Implementations must be safe for
// concurrent use; TrialFinished is called from worker goroutines.
type Recorder interface {
	RunStarted()
	TrialFinished(failed, timedOut bool)
	RunFinished(state RunState, elapsed time.Duration)
}

// ProgressFunc is called after every batch.
type ProgressFunc func(Progress)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a callback invoked after each batch.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithRecorder registers a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// Orchestrator runs Monte Carlo analyses, one at a time. Use separate
// orchestrators for concurrent analyses.
type Orchestrator struct {
	logger   *zap.Logger
	engine   Simulator
	progress ProgressFunc
	recorder Recorder

	mu      sync.Mutex
	current *RunContext
}

// NewOrchestrator creates an orchestrator. A nil engine uses a
// cashflow.Engine; a nil logger uses a no-op logger.
func NewOrchestrator(logger *zap.Logger, engine Simulator, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = cashflow.NewEngine(logger)
	}
	o := &Orchestrator{logger: logger, engine: engine}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the state of the most recent run, or StateIdle.
func (o *Orchestrator) State() RunState {
	if rc := o.run(); rc != nil {
		return rc.State()
	}
	return StateIdle
}

// Progress returns the counters of the most recent run.
func (o *Orchestrator) Progress() Progress {
	if rc := o.run(); rc != nil {
		return rc.Progress()
	}
	return Progress{State: StateIdle}
}

// Cancel asks the running analysis to stop before its next trial. Trials in
// flight finish. It reports whether a run was cancelled.
func (o *Orchestrator) Cancel() bool {
	rc := o.run()
	if rc == nil {
		return false
	}
	return rc.requestCancel()
}

func (o *Orchestrator) run() *RunContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) begin(total int) (*RunContext, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil && o.current.State() == StateRunning {
		return nil, ErrRunInProgress
	}
	o.current = newRunContext(total)
	return o.current, nil
}

// plan is the read-only input shared by every trial of a run.
type plan struct {
	settings
	base      scenario.Scenario
	overrides []override
}

// trialScenario builds the scenario for the trial seeded with seed. It is a
// pure function of the seed, so a trial can be replayed exactly.
func (p *plan) trialScenario(seed uint32) (scenario.Scenario, error) {
	src := random.New(seed)
	s := p.base.Clone()
	for _, ov := range p.overrides {
		ov.apply(&s, ov.dist.Sample(src))
	}
	if p.model == nil {
		return s, nil
	}

	returnSeed := src.Uint32()
	var types []string
	for _, assetType := range s.AssetTypes() {
		if returns.Covers(p.model, assetType, p.modelConfig) {
			types = append(types, assetType)
		}
	}
	if len(types) == 0 {
		return s, nil
	}
	years := (s.Plan.DurationMonths + constants.MonthsPerYear - 1) / constants.MonthsPerYear
	if years < 0 {
		years = 0
	}
	series, err := p.model.Generate(types, years, &returnSeed, p.modelConfig)
	if err != nil {
		return s, fmt.Errorf("failed to generate returns: %w", err)
	}
	if s.Returns == nil {
		s.Returns = make(map[string][]float64, len(series))
	}
	for assetType, values := range series {
		s.Returns[assetType] = values
	}
	return s, nil
}

// score fills the trial metrics from a finished simulation.
func (p *plan) score(t *Trial, s scenario.Scenario, result *cashflow.Result) {
	totals := result.TotalBalances()
	t.DurationMonths = s.Plan.DurationMonths
	t.FinalBalance = result.FinalTotal()
	t.SurvivalMonths = stats.SurvivalMonths(totals)
	t.MaxDrawdown = stats.MaxDrawdown(append([]float64{s.TotalBalance()}, totals...))
	t.Success = t.SurvivalMonths >= p.targetFor(t.DurationMonths) && meetsMinBalances(s, result)
}

// meetsMinBalances reports whether every asset with a floor ends at or above
// it. The floor is only evaluated here; it never blocks a withdrawal.
func meetsMinBalances(s scenario.Scenario, result *cashflow.Result) bool {
	final := result.FinalBalances()
	for _, asset := range s.Assets {
		if asset.MinBalance == nil {
			continue
		}
		balance, ok := final[asset.Name]
		if !ok {
			balance = asset.Balance
		}
		if balance < *asset.MinBalance {
			return false
		}
	}
	return true
}

// Run executes the analysis of base with the variables in ranges resampled
// for every trial. Configuration and scenario errors are returned before any
// trial runs. A cancelled run returns its partial result with Status
// StateCancelled; a run whose failure rate exceeds the threshold returns a
// *BatchFailure carrying the partial result.
func (o *Orchestrator) Run(ctx context.Context, base scenario.Scenario, ranges map[string]Distribution, cfg Config) (*AnalysisResult, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	overrides, err := compileOverrides(base, ranges)
	if err != nil {
		return nil, err
	}

	rc, err := o.begin(resolved.iterations)
	if err != nil {
		return nil, err
	}
	if o.recorder != nil {
		o.recorder.RunStarted()
	}
	p := &plan{settings: resolved, base: base.Clone(), overrides: overrides}
	logger := o.logger.With(zap.String("op", "montecarlo.Run"), zap.String("run_id", rc.ID))

	if resolved.clamped {
		logger.Warn("iterations clamped to ceiling",
			zap.Int("requested", resolved.requested),
			zap.Int("iterations", resolved.iterations),
		)
	}
	modelName := "none"
	if resolved.model != nil {
		modelName = resolved.model.Name()
	}
	logger.Info("starting monte carlo run",
		zap.String("scenario", base.Name),
		zap.Int("iterations", resolved.iterations),
		zap.Uint32("seed", resolved.seed),
		zap.Int("workers", resolved.workers),
		zap.Int("batch_size", resolved.batchSize),
		zap.Int("variables", len(overrides)),
		zap.String("return_model", modelName),
	)

	trials := make([]Trial, resolved.iterations)
	ran := make([]bool, resolved.iterations)
	var failure *BatchFailure
	for start := 0; start < resolved.iterations; start += resolved.batchSize {
		if rc.stopping(ctx) {
			break
		}
		end := min(start+resolved.batchSize, resolved.iterations)
		o.runBatch(ctx, rc, p, trials, ran, start, end)

		progress := rc.Progress()
		logger.Debug("batch complete",
			zap.Int("completed", progress.Completed),
			zap.Int("failed", progress.Failed),
			zap.Int("total", progress.Total),
		)
		if o.progress != nil {
			o.progress(progress)
		}
		if progress.Failed > 0 && float64(progress.Failed)/float64(progress.Completed) > resolved.failureThreshold {
			failure = &BatchFailure{
				Failed:    progress.Failed,
				Completed: progress.Completed,
				Threshold: resolved.failureThreshold,
			}
			break
		}
	}

	completed := make([]Trial, 0, resolved.iterations)
	for i, t := range trials {
		if ran[i] {
			completed = append(completed, t)
		}
	}

	status := StateCompleted
	switch {
	case failure != nil:
		status = StateFailed
	case len(completed) < resolved.iterations:
		status = StateCancelled
	}

	result := aggregate(rc.ID, p, completed, status)
	result.KeyScenarios = o.keyScenarios(p, completed, logger)
	rc.finish(status)

	elapsed := time.Since(rc.StartedAt)
	if o.recorder != nil {
		o.recorder.RunFinished(status, elapsed)
	}

	if failure != nil {
		failure.Partial = result
		logger.Error("monte carlo run aborted", zap.Error(failure))
		return nil, failure
	}
	logger.Info("monte carlo run finished",
		zap.String("status", string(status)),
		zap.Int("completed", result.CompletedIterations),
		zap.Int("failed", result.FailedIterations),
		zap.Float64("success_rate", result.SuccessRate),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// runBatch runs trials [start, end) on a bounded set of workers. Each trial
// writes only its own slot, so no locking is needed on trials or ran.
func (o *Orchestrator) runBatch(ctx context.Context, rc *RunContext, p *plan, trials []Trial, ran []bool, start, end int) {
	jobs := make(chan int, end-start)
	for i := start; i < end; i++ {
		jobs <- i
	}
	close(jobs)

	workers := min(p.workers, end-start)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if rc.stopping(ctx) {
					continue
				}
				trial := o.runTrial(ctx, p, idx)
				trials[idx] = trial
				ran[idx] = true
				rc.record(trial)
				if o.recorder != nil {
					o.recorder.TrialFinished(trial.Err != nil, trial.Err != nil && trial.Err.TimedOut)
				}
			}
		}()
	}
	wg.Wait()
}

type outcome struct {
	result *cashflow.Result
	err    error
}

// runTrial executes one trial. Errors, panics and timeouts are recorded on
// the returned Trial rather than propagated.
func (o *Orchestrator) runTrial(ctx context.Context, p *plan, index int) (trial Trial) {
	seed := random.DeriveSeed(p.seed, index)
	trial = Trial{Index: index, Seed: seed}
	defer func() {
		if r := recover(); r != nil {
			trial = Trial{Index: index, Seed: seed, Err: newTrialError(index, seed, p.base.Name, fmt.Errorf("panic: %v", r))}
		}
	}()

	s, err := p.trialScenario(seed)
	if err != nil {
		trial.Err = newTrialError(index, seed, p.base.Name, err)
		return trial
	}

	// Trials are never interrupted by run cancellation, only by their own
	// deadline.
	trialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := o.engine.SimulateContext(trialCtx, s)
		done <- outcome{result: result, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-trialCtx.Done():
		select {
		case out = <-done:
		default:
			out = outcome{err: trialCtx.Err()}
		}
	}

	if out.err != nil {
		trial.Err = newTrialError(index, seed, p.base.Name, out.err)
		trial.Err.TimedOut = errors.Is(out.err, context.DeadlineExceeded)
		o.logger.Debug("trial failed",
			zap.String("op", "montecarlo.runTrial"),
			zap.Int("trial", index),
			zap.Uint32("seed", seed),
			zap.Bool("timed_out", trial.Err.TimedOut),
			zap.Error(out.err),
		)
		return trial
	}
	p.score(&trial, s, out.result)
	return trial
}

// aggregate summarizes the completed trials, in index order.
func aggregate(runID string, p *plan, trials []Trial, status RunState) *AnalysisResult {
	result := &AnalysisResult{
		RunID:                runID,
		Status:               status,
		Seed:                 p.seed,
		RequestedIterations:  p.requested,
		Iterations:           p.iterations,
		Clamped:              p.clamped,
		CompletedIterations:  len(trials),
		TargetSurvivalMonths: p.targetFor(p.base.Plan.DurationMonths),
		TargetSuccessRate:    p.targetRate,
		Statistics:           make(map[string]stats.Distribution, 3),
		KeyScenarios:         make(map[string]KeyScenario),
	}
	if p.model != nil {
		result.ReturnModel = p.model.Name()
	}

	var finals, survivals, drawdowns []float64
	var survivalMonths []int
	successes, depleted := 0, 0
	for _, t := range trials {
		if t.Err != nil {
			result.FailedIterations++
			if len(result.TrialErrors) < maxReportedTrialErrors {
				result.TrialErrors = append(result.TrialErrors, t.Err)
			}
			continue
		}
		if t.Success {
			successes++
		}
		if t.depleted() {
			depleted++
		}
		finals = append(finals, t.FinalBalance)
		survivals = append(survivals, float64(t.SurvivalMonths))
		survivalMonths = append(survivalMonths, t.SurvivalMonths)
		drawdowns = append(drawdowns, t.MaxDrawdown)
	}

	if len(trials) > 0 {
		result.SuccessRate = float64(successes) / float64(len(trials))
		result.MeetsTarget = result.SuccessRate >= p.targetRate
	}
	result.Statistics[MetricFinalBalance] = stats.Summarize(finals, p.percentiles)
	result.Statistics[MetricSurvivalMonths] = stats.Summarize(survivals, p.percentiles)
	result.Statistics[MetricMaxDrawdown] = stats.Summarize(drawdowns, p.percentiles)

	result.SurvivalStatistics = SurvivalStatistics{
		Distribution:  result.Statistics[MetricSurvivalMonths],
		SurvivalCurve: stats.SurvivalCurve(survivalMonths, p.base.Plan.DurationMonths),
	}
	if len(finals) > 0 {
		result.SurvivalStatistics.DepletionRate = float64(depleted) / float64(len(finals))
	}

	result.RiskMetrics = RiskMetrics{
		Confidence:     p.riskConfidence,
		ValueAtRisk:    stats.ValueAtRisk(finals, p.riskConfidence),
		ConditionalVaR: stats.ConditionalVaR(finals, p.riskConfidence),
		MaxDrawdown:    stats.Max(drawdowns),
	}
	return result
}

// keyScenarios ranks the successful simulations by final balance and replays
// the representative ones to recover their ledgers.
func (o *Orchestrator) keyScenarios(p *plan, trials []Trial, logger *zap.Logger) map[string]KeyScenario {
	out := make(map[string]KeyScenario, len(KeyScenarioLabels))
	ranked := make([]Trial, 0, len(trials))
	for _, t := range trials {
		if t.Err == nil {
			ranked = append(ranked, t)
		}
	}
	if len(ranked) == 0 {
		return out
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FinalBalance != ranked[j].FinalBalance {
			return ranked[i].FinalBalance < ranked[j].FinalBalance
		}
		return ranked[i].Index < ranked[j].Index
	})

	replayed := make(map[int]*cashflow.Result, len(KeyScenarioLabels))
	for _, label := range KeyScenarioLabels {
		t := ranked[stats.RankIndex(len(ranked), keyScenarioPercentiles[label])]
		result, ok := replayed[t.Index]
		if !ok {
			var err error
			result, err = o.replay(p, t.Seed)
			if err != nil {
				logger.Warn("failed to replay key scenario",
					zap.String("label", label),
					zap.Int("trial", t.Index),
					zap.Uint32("seed", t.Seed),
					zap.Error(err),
				)
				continue
			}
			replayed[t.Index] = result
		}
		out[label] = KeyScenario{Trial: t, Result: result}
	}
	return out
}

func (o *Orchestrator) replay(p *plan, seed uint32) (*cashflow.Result, error) {
	s, err := p.trialScenario(seed)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return o.engine.SimulateContext(ctx, s)
}
