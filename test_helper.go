package coinfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// helpers shared by the package tests.

// tx builds a transaction with a deterministic id and a timestamp offset in
// minutes from a fixed origin, so ordering in tests is easy to reason about.
func tx(id string, minute int, asset string, side Side, qty, price float64) Transaction {
	origin := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return Transaction{
		ID:       id,
		Time:     origin.Add(time.Duration(minute) * time.Minute),
		Asset:    asset,
		Side:     side,
		Quantity: Q(qty),
		Price:    M(price, "USDT"),
	}
}

// fakeSource serves canned spot prices and fx rates from maps. A missing
// entry answers ErrPriceUnavailable, like a feed that does not know the
// symbol.
type fakeSource struct {
	prices map[string]float64
	rates  map[string]float64
	calls  int
}

func (f *fakeSource) Quote() string { return "USDT" }

func (f *fakeSource) SpotPrice(ctx context.Context, asset string) (Money, error) {
	f.calls++
	p, ok := f.prices[asset]
	if !ok {
		return Money{}, fmt.Errorf("no ticker for %s: %w", asset, ErrPriceUnavailable)
	}
	return M(p, "USDT"), nil
}

func (f *fakeSource) FxRate(ctx context.Context, fiat string) (decimal.Decimal, error) {
	r, ok := f.rates[fiat]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s: %w", fiat, ErrPriceUnavailable)
	}
	return decimal.NewFromFloat(r), nil
}
