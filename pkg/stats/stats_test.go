package stats

import (
	"math"
	"testing"

	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"zero is min", 0, 10},
		{"hundred is max", 100, 50},
		{"median", 50, 30},
		{"quarter", 25, 20},
		{"interpolated", 10, 14},
		{"interpolated upper", 90, 46},
		{"below range clamps", -5, 10},
		{"above range clamps", 150, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(sorted, tt.p); !mathutil.WithinTolerance(got, tt.expected, 1e-9) {
				t.Errorf("Percentile(%v) = %v, expected %v", tt.p, got, tt.expected)
			}
		})
	}
	if Percentile(nil, 50) != 0 {
		t.Error("empty input should yield 0")
	}
	if Percentile([]float64{7}, 33) != 7 {
		t.Error("single value should be every percentile")
	}
}

func TestPercentileBoundsAndMonotonic(t *testing.T) {
	values := []float64{5, -3, 12.5, 0, 99, 42, 42, -17, 8}
	sorted := Sorted(values)
	if Percentile(sorted, 0) != Min(values) {
		t.Errorf("p0 = %v, min = %v", Percentile(sorted, 0), Min(values))
	}
	if Percentile(sorted, 100) != Max(values) {
		t.Errorf("p100 = %v, max = %v", Percentile(sorted, 100), Max(values))
	}
	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		got := Percentile(sorted, p)
		if got < prev {
			t.Fatalf("percentile decreased at p=%v: %v < %v", p, got, prev)
		}
		prev = got
	}
}

func TestSortedDoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	sorted := Sorted(values)
	if values[0] != 3 || sorted[0] != 1 {
		t.Errorf("values = %v, sorted = %v", values, sorted)
	}
}

func TestMoments(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if Mean(values) != 5 {
		t.Errorf("Mean() = %v, expected 5", Mean(values))
	}
	if !mathutil.WithinTolerance(StdDev(values), 2, 1e-12) {
		t.Errorf("StdDev() = %v, expected 2", StdDev(values))
	}
	if Min(values) != 2 || Max(values) != 9 {
		t.Errorf("Min/Max = %v/%v", Min(values), Max(values))
	}
	if Mean(nil) != 0 || StdDev(nil) != 0 || Min(nil) != 0 || Max(nil) != 0 {
		t.Error("empty inputs should yield zero")
	}
}

func TestRankIndex(t *testing.T) {
	tests := []struct {
		n        int
		p        float64
		expected int
	}{
		{100, 0, 0},
		{100, 100, 99},
		{100, 50, 50},
		{100, 10, 10},
		{5, 25, 1},
		{1, 90, 0},
		{0, 50, 0},
	}
	for _, tt := range tests {
		if got := RankIndex(tt.n, tt.p); got != tt.expected {
			t.Errorf("RankIndex(%d, %v) = %d, expected %d", tt.n, tt.p, got, tt.expected)
		}
	}
}

func TestValueAtRisk(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[100-i] = float64(i * 1000)
	}
	if got := ValueAtRisk(values, 0.95); !mathutil.WithinTolerance(got, 5000, 1e-9) {
		t.Errorf("VaR(0.95) = %v, expected 5000", got)
	}
	if got := ValueAtRisk(values, 95); !mathutil.WithinTolerance(got, 5000, 1e-9) {
		t.Errorf("VaR(95) = %v, expected percentage form to match", got)
	}
	if got := ConditionalVaR(values, 0.95); !mathutil.WithinTolerance(got, 2500, 1e-9) {
		t.Errorf("CVaR(0.95) = %v, expected 2500", got)
	}
	if ConditionalVaR(values, 0.95) > ValueAtRisk(values, 0.95) {
		t.Error("CVaR must not exceed VaR")
	}
	if ValueAtRisk(nil, 0.95) != 0 || ConditionalVaR(nil, 0.95) != 0 {
		t.Error("empty inputs should yield zero")
	}
}

func TestSurvivalMonths(t *testing.T) {
	tests := []struct {
		name     string
		totals   []float64
		expected int
	}{
		{"never depletes", []float64{3, 2, 1}, 3},
		{"depletes to zero", []float64{3, 2, 0, 5}, 2},
		{"negative at start", []float64{-1, 4}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SurvivalMonths(tt.totals); got != tt.expected {
				t.Errorf("SurvivalMonths() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{"monotonic rise", []float64{1, 2, 3}, 0},
		{"single dip", []float64{100, 80, 120}, 0.2},
		{"deeper later dip", []float64{100, 90, 200, 50, 60}, 0.75},
		{"depleted", []float64{100, 50, 0}, 1},
		{"below zero is capped", []float64{100, -50}, 1},
		{"non-positive peak ignored", []float64{-100, -200}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxDrawdown(tt.series); !mathutil.WithinTolerance(got, tt.expected, 1e-12) {
				t.Errorf("MaxDrawdown() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSurvivalCurve(t *testing.T) {
	curve := SurvivalCurve([]int{30, 12, 5, 30}, 30)
	expected := []float64{0.75, 0.5, 0.5}
	if len(curve) != len(expected) {
		t.Fatalf("curve = %v, expected %v", curve, expected)
	}
	for i := range expected {
		if curve[i] != expected[i] {
			t.Errorf("year %d = %v, expected %v", i+1, curve[i], expected[i])
		}
	}
	if SurvivalCurve(nil, 30) != nil || SurvivalCurve([]int{1}, 0) != nil {
		t.Error("degenerate inputs should yield nil")
	}
}

func TestSummarize(t *testing.T) {
	values := []float64{50, 10, 40, 20, 30}
	dist := Summarize(values, []float64{10, 50, 90})
	if dist.Mean != 30 || dist.Median != 30 || dist.Min != 10 || dist.Max != 50 {
		t.Errorf("unexpected summary: %+v", dist)
	}
	if !mathutil.WithinTolerance(dist.Percentiles["p10"], 14, 1e-9) {
		t.Errorf("p10 = %v", dist.Percentiles["p10"])
	}
	if dist.Percentiles["p50"] != 30 || !mathutil.WithinTolerance(dist.Percentiles["p90"], 46, 1e-9) {
		t.Errorf("percentiles = %v", dist.Percentiles)
	}
	if empty := Summarize(nil, []float64{50}); empty.Percentiles == nil || empty.Mean != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestPercentileKey(t *testing.T) {
	for p, expected := range map[float64]string{1: "p1", 5: "p5", 12.5: "p12.5", 0.5: "p0.5", 95: "p95", 100: "p100"} {
		if got := PercentileKey(p); got != expected {
			t.Errorf("PercentileKey(%v) = %q, expected %q", p, got, expected)
		}
	}
}

func TestSummarizeLowPercentilesArePercentages(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[i] = float64(i + 1)
	}
	dist := Summarize(values, []float64{1, 5, 95, 99})

	expected := map[string]float64{"p1": 2, "p5": 6, "p95": 96, "p99": 100}
	if len(dist.Percentiles) != len(expected) {
		t.Fatalf("percentiles = %v, expected keys %v", dist.Percentiles, expected)
	}
	for key, want := range expected {
		got, ok := dist.Percentiles[key]
		if !ok {
			t.Errorf("missing %s in %v", key, dist.Percentiles)
			continue
		}
		if !mathutil.WithinTolerance(got, want, 1e-9) {
			t.Errorf("%s = %v, expected %v", key, got, want)
		}
	}
	if _, ok := dist.Percentiles["p100"]; ok {
		t.Error("p1 must not be reported as p100")
	}
}
