// Package coinfolio tracks cryptocurrency buy/sell transactions for a single
// investor and derives dollar-cost-averaging metrics from them.
//
// The ledger is a flat CSV file of transactions. Positions (quantity held,
// weighted average cost, realized P&L) are never stored: they are recomputed
// from scratch by replaying the asset's transactions in chronological order
// on every query. Weighted-average cost is path dependent, so a full replay
// is the only way to stay correct after an edit or deletion of a historical
// transaction; per-asset transaction counts are small enough that this is
// cheap.
//
// Live prices come from an exchange feed behind the PriceSource interface,
// and the valuation reporter merges positions with quotes into a portfolio
// view, optionally converted to a display fiat currency.
package coinfolio
