// Package pnl derives realized profit figures from a trade's entry and exit
// fields. It is pure computation: the close path and the leaderboard path both
// call Compute so that recomputed historical values always match the
// authoritative close-time calculation.
package pnl

import (
	"math"

	"tradeboard/internal/domain"
)

// Inputs holds the per-trade fields the calculation depends on.
// Zero values stand in for absent fields: quantity, prices and fees default
// to 0, multiplier defaults to 1.
type Inputs struct {
	Side       domain.Side
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	Multiplier float64
	Fees       float64
}

// Result is the derived profit breakdown for a single trade.
// ReturnPct is the unscaled ratio pnl/costBasis; callers that persist a
// percentage multiply by 100 themselves.
type Result struct {
	PnL       float64
	CostBasis float64
	ReturnPct float64
	Win       bool
}

// Sign maps a trade side to its profit direction: +1 for buy/long
// (profit when exit > entry), -1 otherwise (profit when exit < entry).
func Sign(side domain.Side) float64 {
	if side.IsLong() {
		return 1
	}
	return -1
}

// Compute derives realized PnL, cost basis and return ratio from the inputs.
// Total computation: there are no error cases, division by zero is guarded
// by defaulting the return ratio to 0.
func Compute(in Inputs) Result {
	mult := in.Multiplier
	if mult == 0 {
		mult = 1
	}

	raw := (in.ExitPrice - in.EntryPrice) * in.Quantity * mult * Sign(in.Side)
	res := Result{
		PnL:       raw - in.Fees,
		CostBasis: math.Abs(in.EntryPrice * in.Quantity * mult),
	}
	if res.CostBasis > 0 {
		res.ReturnPct = res.PnL / res.CostBasis
	}
	res.Win = res.PnL > 0
	return res
}

// FromTrade builds calculation inputs from a stored trade.
func FromTrade(t *domain.Trade) Inputs {
	return Inputs{
		Side:       t.Side,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		Quantity:   t.Quantity,
		Multiplier: t.Multiplier,
		Fees:       t.Fees,
	}
}

// Round2 rounds to 2 decimal places, half away from zero. Used for the
// persisted pnl and returnPct values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
