package returns

// HistoricalStartYear is the calendar year of the first row in the embedded
// table.
const HistoricalStartYear = 1970

// Asset class labels with embedded history.
const (
	AssetStocks = "stocks"
	AssetBonds  = "bonds"
	AssetCash   = "cash"
)

// Annual total returns, 1970-2023, as fractions. Stocks are S&P 500 with
// dividends, bonds are 10-year US Treasuries, cash is 3-month T-bills.
var historicalReturns = map[string][]float64{
	AssetStocks: {
		0.0356, 0.1422, 0.1876, -0.1431, -0.2590, 0.3700, 0.2383, -0.0698, 0.0651, 0.1852,
		0.3174, -0.0470, 0.2042, 0.2234, 0.0615, 0.3124, 0.1849, 0.0581, 0.1654, 0.3148,
		-0.0306, 0.3023, 0.0749, 0.0997, 0.0133, 0.3720, 0.2268, 0.3310, 0.2834, 0.2089,
		-0.0903, -0.1185, -0.2197, 0.2836, 0.1074, 0.0483, 0.1561, 0.0548, -0.3655, 0.2594,
		0.1482, 0.0210, 0.1589, 0.3215, 0.1352, 0.0138, 0.1177, 0.2161, -0.0423, 0.3121,
		0.1802, 0.2847, -0.1804, 0.2606,
	},
	AssetBonds: {
		0.1675, 0.0979, 0.0282, 0.0366, 0.0199, 0.0361, 0.1598, 0.0129, -0.0078, 0.0067,
		-0.0299, 0.0820, 0.3281, 0.0320, 0.1373, 0.2571, 0.2428, -0.0496, 0.0822, 0.1769,
		0.0624, 0.1500, 0.0936, 0.1421, -0.0804, 0.2348, 0.0143, 0.0994, 0.1492, -0.0825,
		0.1666, 0.0557, 0.1512, 0.0038, 0.0449, 0.0287, 0.0196, 0.1021, 0.2010, -0.1112,
		0.0846, 0.1604, 0.0297, -0.0910, 0.1075, 0.0128, 0.0069, 0.0280, -0.0002, 0.0964,
		0.1133, -0.0442, -0.1783, 0.0388,
	},
	AssetCash: {
		0.0639, 0.0433, 0.0406, 0.0704, 0.0785, 0.0579, 0.0498, 0.0527, 0.0722, 0.1004,
		0.1151, 0.1403, 0.1069, 0.0863, 0.0958, 0.0748, 0.0598, 0.0578, 0.0667, 0.0811,
		0.0750, 0.0538, 0.0343, 0.0300, 0.0425, 0.0549, 0.0501, 0.0506, 0.0478, 0.0464,
		0.0582, 0.0340, 0.0161, 0.0101, 0.0137, 0.0315, 0.0473, 0.0436, 0.0137, 0.0015,
		0.0014, 0.0005, 0.0009, 0.0006, 0.0003, 0.0005, 0.0032, 0.0093, 0.0194, 0.0206,
		0.0035, 0.0005, 0.0202, 0.0507,
	},
}

// HistoricalYears is the number of calendar years in the embedded table.
func HistoricalYears() int {
	return len(historicalReturns[AssetStocks])
}

// HistoricalSeries returns a copy of the embedded series for assetType and
// whether history exists for it.
func HistoricalSeries(assetType string) ([]float64, bool) {
	series, ok := historicalReturns[assetType]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), series...), true
}
