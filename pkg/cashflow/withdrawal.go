package cashflow

import (
	"math"
	"sort"

	"github.com/iwvelando/finance-montecarlo/pkg/scenario"
)

// epsilon below which a residual shortfall is treated as covered.
const epsilon = 1e-9

// rankGroup is the set of order entries sharing one rank, in declaration order.
type rankGroup struct {
	rank    int
	entries []scenario.WithdrawalOrderEntry
}

// groupByRank sorts entries ascending by rank, keeping declaration order for
// ties, and groups equal ranks.
func groupByRank(order []scenario.WithdrawalOrderEntry) []rankGroup {
	sorted := append([]scenario.WithdrawalOrderEntry(nil), order...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	var groups []rankGroup
	for _, entry := range sorted {
		if n := len(groups); n > 0 && groups[n-1].rank == entry.Order {
			groups[n-1].entries = append(groups[n-1].entries, entry)
			continue
		}
		groups = append(groups, rankGroup{rank: entry.Order, entries: []scenario.WithdrawalOrderEntry{entry}})
	}
	return groups
}

// available is what can be drawn from a balance. A negative balance is a
// planned expense whose magnitude can be drawn down to zero.
func available(balance float64) float64 {
	return math.Abs(balance)
}

// draw moves balance toward zero by amount, never past it.
func draw(balance, amount float64) float64 {
	if balance < 0 {
		return math.Min(balance+amount, 0)
	}
	return math.Max(balance-amount, 0)
}

// withdrawer drains a ledger's assets to cover a monthly shortfall.
type withdrawer struct {
	state   *ledgerState
	taken   map[string]float64
	touched []string
}

func newWithdrawer(state *ledgerState) *withdrawer {
	return &withdrawer{state: state, taken: make(map[string]float64)}
}

func (w *withdrawer) availableFor(account string) float64 {
	idx, ok := w.state.index[account]
	if !ok {
		return 0
	}
	return available(w.state.assets[idx].Balance)
}

// take draws up to amount from account and returns what was drawn.
func (w *withdrawer) take(account string, amount float64) float64 {
	idx, ok := w.state.index[account]
	if !ok || amount <= 0 {
		return 0
	}
	amount = math.Min(amount, available(w.state.assets[idx].Balance))
	if amount <= 0 {
		return 0
	}
	w.state.assets[idx].Balance = draw(w.state.assets[idx].Balance, amount)
	if _, seen := w.taken[account]; !seen {
		w.touched = append(w.touched, account)
	}
	w.taken[account] += amount
	return amount
}

// cover walks the rank groups ascending and returns the withdrawals made and
// the unmet residual.
func (w *withdrawer) cover(groups []rankGroup, shortfall float64) ([]Withdrawal, float64) {
	remaining := shortfall
	for _, group := range groups {
		if remaining <= epsilon {
			break
		}
		remaining = w.coverGroup(group, remaining)
	}

	withdrawals := make([]Withdrawal, 0, len(w.touched))
	for _, account := range w.touched {
		withdrawals = append(withdrawals, Withdrawal{From: account, Amount: w.taken[account]})
	}
	if remaining <= epsilon {
		remaining = 0
	}
	return withdrawals, remaining
}

// coverGroup splits remaining across weighted entries proportionally to
// weight, redistributing whatever capped entries could not supply among the
// rest, then drains unweighted entries in declaration order.
func (w *withdrawer) coverGroup(group rankGroup, remaining float64) float64 {
	var weighted, unweighted []scenario.WithdrawalOrderEntry
	for _, entry := range group.entries {
		if entry.Weight > 0 {
			weighted = append(weighted, entry)
		} else {
			unweighted = append(unweighted, entry)
		}
	}

	active := weighted
	for remaining > epsilon && len(active) > 0 {
		totalWeight := 0.0
		for _, entry := range active {
			totalWeight += entry.Weight
		}
		target := remaining
		var next []scenario.WithdrawalOrderEntry
		exhausted := false
		for _, entry := range active {
			share := target * entry.Weight / totalWeight
			drawn := w.take(entry.Account, math.Min(share, remaining))
			remaining -= drawn
			if drawn+epsilon < share {
				exhausted = true
				continue
			}
			next = append(next, entry)
		}
		if !exhausted {
			break
		}
		active = next
	}

	for _, entry := range unweighted {
		if remaining <= epsilon {
			break
		}
		remaining -= w.take(entry.Account, remaining)
	}
	return remaining
}
