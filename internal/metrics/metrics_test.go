package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	c.SimulationFinished(nil)
	c.SimulationFinished(nil)
	c.SimulationFinished(errors.New("boom"))
	c.RunStarted()
	c.TrialFinished(false, false)
	c.TrialFinished(true, false)
	c.TrialFinished(true, true)
	c.RunFinished(montecarlo.StateCompleted, 1500*time.Millisecond)
	c.RequestHandled("/api/simulate", 200)
	c.RequestHandled("/api/simulate", 422)

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"ok simulations", testutil.ToFloat64(c.simulations.WithLabelValues("ok")), 2},
		{"failed simulations", testutil.ToFloat64(c.simulations.WithLabelValues("error")), 1},
		{"ok trials", testutil.ToFloat64(c.trials.WithLabelValues("ok")), 1},
		{"error trials", testutil.ToFloat64(c.trials.WithLabelValues("error")), 1},
		{"timed out trials", testutil.ToFloat64(c.trials.WithLabelValues("timeout")), 1},
		{"completed runs", testutil.ToFloat64(c.runs.WithLabelValues("completed")), 1},
		{"active runs", testutil.ToFloat64(c.activeRuns), 0},
		{"2xx requests", testutil.ToFloat64(c.requestTotal.WithLabelValues("/api/simulate", "2xx")), 1},
		{"4xx requests", testutil.ToFloat64(c.requestTotal.WithLabelValues("/api/simulate", "4xx")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}

	if count := testutil.CollectAndCount(c.runDuration); count != 1 {
		t.Errorf("run duration histogram exported %d series, expected 1", count)
	}
}

func TestCollectorRecordsOrchestratorRun(t *testing.T) {
	c := New()
	o := montecarlo.NewOrchestrator(nil, nil, montecarlo.WithRecorder(c))
	seed := int64(3)
	s := scenario.Scenario{
		Name:   "metrics",
		Plan:   &scenario.Plan{MonthlyExpenses: 100, DurationMonths: 12},
		Assets: []scenario.Asset{{Name: "Cash", Balance: 5000}},
		Order:  []scenario.WithdrawalOrderEntry{{Account: "Cash", Order: 1}},
	}

	if _, err := o.Run(context.Background(), s, nil, montecarlo.Config{Iterations: 30, RandomSeed: &seed}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := testutil.ToFloat64(c.trials.WithLabelValues("ok")); got != 30 {
		t.Errorf("ok trials = %v, expected 30", got)
	}
	if got := testutil.ToFloat64(c.runs.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed runs = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(c.activeRuns); got != 0 {
		t.Errorf("active runs = %v, expected 0", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	c := New()
	c.SimulationFinished(nil)
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() == "finance_montecarlo_simulations_total" {
			found = true
		}
	}
	if !found {
		t.Error("simulations counter not exported by the registry")
	}
}

func TestStatusLabel(t *testing.T) {
	for code, expected := range map[int]string{200: "2xx", 201: "2xx", 304: "3xx", 400: "4xx", 413: "4xx", 500: "5xx"} {
		if got := statusLabel(code); got != expected {
			t.Errorf("statusLabel(%d) = %s, expected %s", code, got, expected)
		}
	}
}
