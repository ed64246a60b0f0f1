package coinfolio

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// FeeRate is the flat exchange fee applied to both sides of a trade: buys
// cost 0.1% more than quantity times price, sells net 0.1% less.
var FeeRate = decimal.NewFromFloat(0.001)

// feeBuy  = 1 + FeeRate, multiplier on the cost of a buy.
// feeSell = 1 - FeeRate, multiplier on the proceeds of a sell.
var (
	feeBuy  = decimal.NewFromInt(1).Add(FeeRate)
	feeSell = decimal.NewFromInt(1).Sub(FeeRate)
)

// OversellError reports a SELL whose quantity exceeds the position held at
// that point of the replay. The position returned alongside it covers the
// transactions before the offending one.
type OversellError struct {
	ID    string
	Asset string
	Held  Quantity
	Sold  Quantity
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("%s: sell %s exceeds held quantity %s of %s", e.ID, e.Sold, e.Held, e.Asset)
}

// Position is the weighted-average state of one asset after replaying its
// transaction history. Positions are derived values: they are recomputed in
// full from the ledger on every query and never persisted.
type Position struct {
	Asset       string
	Quantity    Quantity
	AverageCost Money // fee-adjusted average cost per unit
	Realized    Money // cumulative realized gain or loss, net of fees
	// Partial is set when an oversell stopped the replay early; the fields
	// above then reflect the history up to the offending transaction.
	Partial bool
}

// CostBasis returns quantity times average cost.
func (p Position) CostBasis() Money { return p.AverageCost.Mul(p.Quantity) }

// ComputePosition replays every transaction of the given asset, in
// (timestamp, id) order, through the weighted-average method:
//
//   - a BUY adds quantity*price*(1+fee) to the invested total and
//     re-averages the cost over the new quantity;
//   - a SELL books proceeds quantity*price*(1-fee) minus quantity*avgCost
//     into realized P&L and reduces the quantity. The average cost is left
//     untouched, also when the quantity reaches zero, so a later re-entry
//     starts from a fresh average only through the BUY arithmetic.
//
// A SELL larger than the held quantity stops the replay and returns the
// partial position together with an *OversellError.
func ComputePosition(asset string, txs []Transaction) (Position, error) {
	mine := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Asset == asset {
			mine = append(mine, tx)
		}
	}
	slices.SortStableFunc(mine, func(a, b Transaction) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})

	p := Position{Asset: asset}
	var invested Money // quantity * average cost, carried to avoid re-deriving
	for _, tx := range mine {
		switch tx.Side {
		case Buy:
			cost := tx.GrossAmount().Scale(feeBuy)
			invested = invested.Add(cost)
			p.Quantity = p.Quantity.Add(tx.Quantity)
			p.AverageCost = invested.Div(p.Quantity)
		case Sell:
			if p.Quantity.LessThan(tx.Quantity) {
				p.Partial = true
				return p, &OversellError{ID: tx.ID, Asset: asset, Held: p.Quantity, Sold: tx.Quantity}
			}
			proceeds := tx.GrossAmount().Scale(feeSell)
			removed := p.AverageCost.Mul(tx.Quantity)
			p.Realized = p.Realized.Add(proceeds.Sub(removed))
			p.Quantity = p.Quantity.Sub(tx.Quantity)
			invested = invested.Sub(removed)
		}
	}
	return p, nil
}

// ComputePortfolio replays every asset found in txs. Oversell errors are
// joined per asset; the position map always contains every asset, partial
// ones included, so one bad history never hides the others.
func ComputePortfolio(txs []Transaction) (map[string]Position, error) {
	assets := make(map[string]bool)
	for _, tx := range txs {
		assets[tx.Asset] = true
	}
	positions := make(map[string]Position, len(assets))
	var errs []error
	for asset := range assets {
		p, err := ComputePosition(asset, txs)
		positions[asset] = p
		if err != nil {
			errs = append(errs, err)
		}
	}
	return positions, errors.Join(errs...)
}
