package usage

import "fmt"

// Gate implements discovery.BudgetGate over the tracker. A zero budget
// disables the gate.
type Gate struct {
	Tracker        *Tracker
	DailyBudgetUSD float64
}

func (g *Gate) Allow() (bool, string) {
	if g == nil || g.Tracker == nil || g.DailyBudgetUSD <= 0 {
		return true, ""
	}
	spend, err := g.Tracker.DailySpend()
	if err != nil {
		// A broken ledger must not silence discovery.
		return true, ""
	}
	if spend >= g.DailyBudgetUSD {
		return false, fmt.Sprintf("daily LLM budget exhausted: $%.4f of $%.2f", spend, g.DailyBudgetUSD)
	}
	return true, ""
}
