package cashflow

// Withdrawal records money drawn from one account in one month.
type Withdrawal struct {
	From   string  `json:"from"`
	Amount float64 `json:"amount"`
}

// LedgerEntry is one simulated month. Month is 0-indexed; Need is the gross
// amount expenses exceeded income by (JSON grossShortfall), and Shortfall is
// what remained unmet after every withdrawal (JSON unmet).
type LedgerEntry struct {
	Month       int          `json:"month"`
	Date        string       `json:"date,omitempty"`
	Income      float64      `json:"income"`
	Expenses    float64      `json:"expenses"`
	Need        float64      `json:"grossShortfall"`
	Withdrawals []Withdrawal `json:"withdrawals,omitempty"`
	Withdrawn   float64      `json:"withdrawn"`
	Shortfall   float64      `json:"unmet"`
	Deposits    float64      `json:"deposits"`
	Interest    float64      `json:"interest"`
}

// Result is the output of one simulation. Every BalanceHistory series has one
// balance per ledger month, recorded after interest; assets created mid-run
// are backfilled with zeros.
type Result struct {
	Scenario       string               `json:"scenario,omitempty"`
	Ledger         []LedgerEntry        `json:"ledger"`
	BalanceHistory map[string][]float64 `json:"balanceHistory"`
	AssetOrder     []string             `json:"assetOrder"`
}

// Months returns the number of simulated months.
func (r *Result) Months() int {
	return len(r.Ledger)
}

// TotalBalances sums all asset balances for each month.
func (r *Result) TotalBalances() []float64 {
	totals := make([]float64, len(r.Ledger))
	for _, name := range r.AssetOrder {
		for m, balance := range r.BalanceHistory[name] {
			totals[m] += balance
		}
	}
	return totals
}

// FinalBalances returns each asset's balance after the last month.
func (r *Result) FinalBalances() map[string]float64 {
	final := make(map[string]float64, len(r.AssetOrder))
	for _, name := range r.AssetOrder {
		series := r.BalanceHistory[name]
		if len(series) > 0 {
			final[name] = series[len(series)-1]
		}
	}
	return final
}

// FinalTotal returns the total balance after the last month, or 0 for an
// empty run.
func (r *Result) FinalTotal() float64 {
	totals := r.TotalBalances()
	if len(totals) == 0 {
		return 0
	}
	return totals[len(totals)-1]
}

// TotalUnmet sums the unmet shortfall across all months.
func (r *Result) TotalUnmet() float64 {
	total := 0.0
	for _, entry := range r.Ledger {
		total += entry.Shortfall
	}
	return total
}
