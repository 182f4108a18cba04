package returns

// BootstrapModel resamples calendar years with replacement. Each period draws
// one year and reads every asset type from that same year, which preserves
// cross-asset correlation within the year.
type BootstrapModel struct{}

// Name implements Model.
func (BootstrapModel) Name() string { return TypeBootstrap }

// Generate implements Model.
func (BootstrapModel) Generate(assetTypes []string, periods int, seed *uint32, cfg ModelConfig) (map[string][]float64, error) {
	if err := checkPeriods(periods); err != nil {
		return nil, err
	}
	src := sourceFor(seed)
	years := make([]int, periods)
	for i := range years {
		years[i] = src.Intn(HistoricalYears())
	}
	return readYears(assetTypes, years, cfg), nil
}

// SequenceModel samples one contiguous historical window so the order of
// returns, and therefore sequence risk, is preserved. Horizons longer than the
// table wrap by concatenating the series with itself.
type SequenceModel struct{}

// Name implements Model.
func (SequenceModel) Name() string { return TypeSequence }

// Generate implements Model.
func (m SequenceModel) Generate(assetTypes []string, periods int, seed *uint32, cfg ModelConfig) (map[string][]float64, error) {
	if err := checkPeriods(periods); err != nil {
		return nil, err
	}
	src := sourceFor(seed)
	return readYears(assetTypes, WindowYears(src.Next(), periods), cfg), nil
}

// WindowYears maps a uniform draw u in [0,1) to the table indices of a
// contiguous window of the given length. When the window fits, the start is
// chosen so no wrap occurs; otherwise any start is allowed and indices wrap.
func WindowYears(u float64, periods int) []int {
	span := HistoricalYears()
	starts := span
	if periods <= span {
		starts = span - periods + 1
	}
	start := int(u * float64(starts))
	years := make([]int, periods)
	for i := range years {
		years[i] = (start + i) % span
	}
	return years
}

func readYears(assetTypes []string, years []int, cfg ModelConfig) map[string][]float64 {
	out := make(map[string][]float64, len(assetTypes))
	for _, assetType := range uniqueSorted(assetTypes) {
		series := make([]float64, len(years))
		history, ok := historicalReturns[assetType]
		if ok {
			adj := cfg.adjustment(assetType)
			for i, year := range years {
				series[i] = history[year] + adj
			}
		}
		out[assetType] = series
	}
	return out
}
