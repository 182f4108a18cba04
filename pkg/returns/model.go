// Package returns generates per-period investment returns for asset classes
// from one of several interchangeable models.
package returns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/finance-montecarlo/pkg/random"
)

// Model type identifiers.
const (
	TypeNormal    = "normal"
	TypeBootstrap = "bootstrap"
	TypeSequence  = "sequence"
)

// UnknownModelError reports an unrecognized return model type.
type UnknownModelError struct {
	Type string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown return model type %q (expected %s, %s or %s)",
		e.Type, TypeNormal, TypeBootstrap, TypeSequence)
}

// AssetParams configures one asset type. Mean and StdDev are only read by the
// normal model; Adjustment is added to every historical draw.
type AssetParams struct {
	Mean       *float64 `mapstructure:"mean" yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev     *float64 `mapstructure:"std_dev" yaml:"std_dev,omitempty" json:"std_dev,omitempty"`
	Adjustment float64  `mapstructure:"adjustment" yaml:"adjustment,omitempty" json:"adjustment,omitempty"`
}

// ModelConfig carries model parameters. Adjustment applies to every asset type
// in addition to the per-type adjustment.
type ModelConfig struct {
	Adjustment float64                `mapstructure:"adjustment" yaml:"adjustment,omitempty" json:"adjustment,omitempty"`
	Assets     map[string]AssetParams `mapstructure:"assets" yaml:"assets,omitempty" json:"assets,omitempty"`
}

// Model produces an ordered sequence of period returns per asset type. A nil
// seed draws from a non-reproducible source.
type Model interface {
	Name() string
	Generate(assetTypes []string, periods int, seed *uint32, cfg ModelConfig) (map[string][]float64, error)
}

// New returns the model registered under modelType.
func New(modelType string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(modelType)) {
	case TypeNormal, "independent-normal":
		return NormalModel{}, nil
	case TypeBootstrap, "historical-bootstrap":
		return BootstrapModel{}, nil
	case TypeSequence, "historical-sequence":
		return SequenceModel{}, nil
	default:
		return nil, &UnknownModelError{Type: modelType}
	}
}

func sourceFor(seed *uint32) *random.Source {
	if seed == nil {
		return random.NewUnseeded()
	}
	return random.New(*seed)
}

func checkPeriods(periods int) error {
	if periods < 0 {
		return fmt.Errorf("periods must be non-negative, got %d", periods)
	}
	return nil
}

// uniqueSorted dedupes asset types and fixes iteration order so that draws are
// assigned to types deterministically.
func uniqueSorted(assetTypes []string) []string {
	seen := make(map[string]struct{}, len(assetTypes))
	out := make([]string, 0, len(assetTypes))
	for _, t := range assetTypes {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (c ModelConfig) adjustment(assetType string) float64 {
	return c.Adjustment + c.Assets[assetType].Adjustment
}

// Covers reports whether model produces real returns for assetType rather
// than a zero-filled placeholder.
func Covers(model Model, assetType string, cfg ModelConfig) bool {
	if _, ok := historicalReturns[assetType]; ok {
		return true
	}
	if _, ok := model.(NormalModel); ok {
		_, known := resolveNormalParams(assetType, cfg)
		return known
	}
	return false
}
