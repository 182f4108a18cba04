// Package stats provides the pure aggregation functions used to summarize
// simulation outcomes: percentiles, moments, tail risk, survival and drawdown.
package stats

import (
	"math"
	"sort"
	"strconv"

	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution summarizes a sample of one metric.
type Distribution struct {
	Mean        float64            `json:"mean"`
	Median      float64            `json:"median"`
	StdDev      float64            `json:"stdDev"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"`
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted
}

// Percentile returns the p-th percentile (0..100) of an ascending slice,
// interpolating linearly between the bracketing ranks. It returns 0 for an
// empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	p = mathutil.Clamp(p, 0, 100)
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// RankIndex returns the index of the element nearest the p-th percentile in a
// sorted slice of length n.
func RankIndex(n int, p float64) int {
	if n <= 0 {
		return 0
	}
	p = mathutil.Clamp(p, 0, 100)
	return int(math.Round(p / 100 * float64(n-1)))
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the population standard deviation, or 0 for no values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(values, nil)
	return math.Sqrt(variance)
}

// Min returns the smallest value, or 0 for no values.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// Max returns the largest value, or 0 for no values.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// ValueAtRisk returns the outcome at the loss-tail percentile for the given
// confidence: with confidence 0.95, 5% of outcomes are at or below the result.
// Confidence may be a fraction or a percentage.
func ValueAtRisk(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0
	}
	tail := 1 - mathutil.Clamp(mathutil.ToFraction(confidence), 0, 1)
	return Percentile(Sorted(values), tail*100)
}

// ConditionalVaR returns the mean of the outcomes at or below ValueAtRisk.
func ConditionalVaR(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0
	}
	threshold := ValueAtRisk(values, confidence)
	var tail []float64
	for _, v := range values {
		if v <= threshold {
			tail = append(tail, v)
		}
	}
	if len(tail) == 0 {
		return threshold
	}
	return Mean(tail)
}

// SurvivalMonths returns the first month index whose total balance is at or
// below zero, or len(totals) if the balance never depletes.
func SurvivalMonths(totals []float64) int {
	for m, total := range totals {
		if total <= 0 {
			return m
		}
	}
	return len(totals)
}

// MaxDrawdown returns the largest peak-to-trough decline in series as a
// fraction of the peak, in [0, 1]. Declines from a non-positive peak are
// ignored.
func MaxDrawdown(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	peak := series[0]
	worst := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
			continue
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > worst {
			worst = dd
		}
	}
	return math.Min(worst, 1)
}

// SurvivalCurve returns, for each whole year of a plan lasting duration
// months, the fraction of survival times lasting at least through that year.
// A partial final year is measured at the plan's end.
func SurvivalCurve(survivals []int, duration int) []float64 {
	if duration <= 0 || len(survivals) == 0 {
		return nil
	}
	years := (duration + 11) / 12
	curve := make([]float64, years)
	for y := range curve {
		horizon := (y + 1) * 12
		if horizon > duration {
			horizon = duration
		}
		alive := 0
		for _, s := range survivals {
			if s >= horizon {
				alive++
			}
		}
		curve[y] = float64(alive) / float64(len(survivals))
	}
	return curve
}

// PercentileKey names a percentile (0..100) for map keys and JSON: 5 → "p5",
// 12.5 → "p12.5", 0.5 → "p0.5".
func PercentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}

// Summarize builds a Distribution of values, reporting each requested
// percentile (0..100) under its PercentileKey.
func Summarize(values []float64, percentiles []float64) Distribution {
	dist := Distribution{Percentiles: make(map[string]float64, len(percentiles))}
	if len(values) == 0 {
		return dist
	}
	sorted := Sorted(values)
	dist.Mean = Mean(values)
	dist.Median = Percentile(sorted, 50)
	dist.StdDev = StdDev(values)
	dist.Min = sorted[0]
	dist.Max = sorted[len(sorted)-1]
	for _, p := range percentiles {
		dist.Percentiles[PercentileKey(p)] = Percentile(sorted, p)
	}
	return dist
}
