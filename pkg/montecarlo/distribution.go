package montecarlo

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/mathutil"
	"github.com/iwvelando/finance-montecarlo/pkg/random"
)

// Distribution types accepted in variable ranges.
const (
	DistNormal     = "normal"
	DistUniform    = "uniform"
	DistLogNormal  = "lognormal"
	DistTriangular = "triangular"
)

// Distribution describes how to sample one scenario variable.
//
//   - normal: Mean, StdDev; optionally truncated to [Min, Max] when Min < Max
//   - uniform: Min, Max
//   - lognormal: Mean and StdDev of the underlying normal; optionally truncated
//   - triangular: Min, Mode, Max
type Distribution struct {
	Type   string  `mapstructure:"type" yaml:"type" json:"type"`
	Mean   float64 `mapstructure:"mean" yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev float64 `mapstructure:"std_dev" yaml:"std_dev,omitempty" json:"stdDev,omitempty"`
	Min    float64 `mapstructure:"min" yaml:"min,omitempty" json:"min,omitempty"`
	Max    float64 `mapstructure:"max" yaml:"max,omitempty" json:"max,omitempty"`
	Mode   float64 `mapstructure:"mode" yaml:"mode,omitempty" json:"mode,omitempty"`
}

func (d Distribution) kind() string {
	return strings.ToLower(strings.TrimSpace(d.Type))
}

func (d Distribution) bounded() bool {
	return d.Min < d.Max
}

// validate checks the parameters for d's type.
func (d Distribution) validate() error {
	for _, v := range []float64{d.Mean, d.StdDev, d.Min, d.Max, d.Mode} {
		if !mathutil.IsFinite(v) {
			return fmt.Errorf("parameters must be finite")
		}
	}
	switch d.kind() {
	case DistNormal, DistLogNormal:
		if d.StdDev < 0 {
			return fmt.Errorf("std_dev must not be negative, got %v", d.StdDev)
		}
	case DistUniform:
		if d.Min > d.Max {
			return fmt.Errorf("min %v exceeds max %v", d.Min, d.Max)
		}
	case DistTriangular:
		if d.Min > d.Mode || d.Mode > d.Max {
			return fmt.Errorf("requires min <= mode <= max, got %v/%v/%v", d.Min, d.Mode, d.Max)
		}
	default:
		return fmt.Errorf("unknown distribution type %q (expected %s, %s, %s or %s)",
			d.Type, DistNormal, DistUniform, DistLogNormal, DistTriangular)
	}
	return nil
}

// Sample draws one value from src. d must have passed validate.
func (d Distribution) Sample(src *random.Source) float64 {
	var v float64
	switch d.kind() {
	case DistNormal:
		v = src.Normal(d.Mean, d.StdDev)
	case DistLogNormal:
		v = src.LogNormal(d.Mean, d.StdDev)
	case DistUniform:
		return src.Uniform(d.Min, d.Max)
	case DistTriangular:
		return src.Triangular(d.Min, d.Mode, d.Max)
	}
	if d.bounded() {
		v = mathutil.Clamp(v, d.Min, d.Max)
	}
	return v
}
