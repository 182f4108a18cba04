package returns

type normalParams struct {
	mean   float64
	stdDev float64
}

// Long-run annual mean and volatility used when a type has no configuration.
var defaultNormalParams = map[string]normalParams{
	AssetStocks: {mean: 0.10, stdDev: 0.18},
	AssetBonds:  {mean: 0.05, stdDev: 0.07},
	AssetCash:   {mean: 0.035, stdDev: 0.01},
}

// NormalModel draws every period independently from a normal distribution.
type NormalModel struct{}

// Name implements Model.
func (NormalModel) Name() string { return TypeNormal }

// Generate implements Model. Types with neither configuration nor defaults
// return zeros.
func (NormalModel) Generate(assetTypes []string, periods int, seed *uint32, cfg ModelConfig) (map[string][]float64, error) {
	if err := checkPeriods(periods); err != nil {
		return nil, err
	}
	src := sourceFor(seed)
	out := make(map[string][]float64, len(assetTypes))
	for _, assetType := range uniqueSorted(assetTypes) {
		series := make([]float64, periods)
		params, ok := resolveNormalParams(assetType, cfg)
		if ok {
			for i := range series {
				series[i] = src.Normal(params.mean, params.stdDev) + cfg.adjustment(assetType)
			}
		}
		out[assetType] = series
	}
	return out, nil
}

func resolveNormalParams(assetType string, cfg ModelConfig) (normalParams, bool) {
	params, known := defaultNormalParams[assetType]
	configured, ok := cfg.Assets[assetType]
	if ok && configured.Mean != nil {
		params.mean = *configured.Mean
		known = true
	}
	if ok && configured.StdDev != nil {
		params.stdDev = *configured.StdDev
		known = true
	}
	return params, known
}
