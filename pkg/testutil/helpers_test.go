package testutil

import (
	"testing"

	"github.com/iwvelando/finance-montecarlo/pkg/cashflow"
	"github.com/iwvelando/finance-montecarlo/pkg/montecarlo"
)

func TestFindKeyScenario(t *testing.T) {
	result := &montecarlo.AnalysisResult{
		KeyScenarios: map[string]montecarlo.KeyScenario{
			"worst":  {Trial: montecarlo.Trial{Index: 3, FinalBalance: 10}},
			"median": {Trial: montecarlo.Trial{Index: 7, FinalBalance: 500}},
		},
	}

	tests := []struct {
		name          string
		result        *montecarlo.AnalysisResult
		label         string
		expectFound   bool
		expectedIndex int
	}{
		{name: "Find worst", result: result, label: "worst", expectFound: true, expectedIndex: 3},
		{name: "Find median", result: result, label: "median", expectFound: true, expectedIndex: 7},
		{name: "Missing label", result: result, label: "best"},
		{name: "Nil result", label: "worst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := FindKeyScenario(tt.result, tt.label)
			if !tt.expectFound {
				if found != nil {
					t.Errorf("FindKeyScenario(%q) = %+v, expected nil", tt.label, found)
				}
				return
			}
			if found == nil {
				t.Fatalf("FindKeyScenario(%q) = nil", tt.label)
			}
			if found.Trial.Index != tt.expectedIndex {
				t.Errorf("FindKeyScenario(%q) index = %d, expected %d", tt.label, found.Trial.Index, tt.expectedIndex)
			}
		})
	}
}

func TestBalanceAt(t *testing.T) {
	result := &cashflow.Result{
		BalanceHistory: map[string][]float64{"Cash": {100, 90, 80}},
	}

	tests := []struct {
		name     string
		asset    string
		month    int
		expected float64
		found    bool
	}{
		{"First month", "Cash", 0, 100, true},
		{"Last month", "Cash", 2, 80, true},
		{"Past the end", "Cash", 3, 0, false},
		{"Negative month", "Cash", -1, 0, false},
		{"Unknown asset", "Bonds", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BalanceAt(result, tt.asset, tt.month)
			if ok != tt.found || got != tt.expected {
				t.Errorf("BalanceAt(%s, %d) = %v, %v; expected %v, %v", tt.asset, tt.month, got, ok, tt.expected, tt.found)
			}
		})
	}

	if _, ok := BalanceAt(nil, "Cash", 0); ok {
		t.Error("expected nil result to report not found")
	}
}
