package coinfolio

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"
)

// AssetView is one valued line of the portfolio report.
type AssetView struct {
	Asset       string
	Quantity    Quantity
	AverageCost Money
	CostBasis   Money
	MarketPrice Money
	MarketValue Money
	Realized    Money
	Unrealized  Money
	Allocation  Percent
	// Unquoted marks an asset whose spot price was unavailable; its market
	// value then falls back to its cost basis and its unrealized P&L is zero.
	Unquoted bool
	// Stale marks an asset priced from a cached quote older than its TTL,
	// served because the feed could not refresh it.
	Stale bool
	// Partial marks a position cut short by an oversell in its history.
	Partial bool
}

// PortfolioView is the valued portfolio: every asset line, the cash balance
// and totals, all in one display currency.
type PortfolioView struct {
	Currency       string // currency every monetary field is expressed in
	Assets         []AssetView
	Cash           Money // quote-currency balance derived from the ledger
	CashAllocation Percent
	MarketValue    Money // includes the cash balance
	CostBasis      Money
	Realized       Money
	Unrealized     Money
}

// ValuePortfolio prices every position against src and aggregates the view.
//
// Assets are included when they hold a quantity or carry realized P&L. The
// quote asset itself is never an asset line: its trades are cash movements
// and surface as the Cash balance, which counts toward the total and the
// allocation. A price failure degrades that one asset to its cost basis
// (Unquoted) and never aborts the rest; a stale cached quote is used but
// flagged. When display differs from the source's quote currency, one fx
// rate is fetched and applied uniformly to every monetary field after
// aggregation; if the rate is unavailable the view stays in the quote
// currency.
func ValuePortfolio(ctx context.Context, positions map[string]Position, cash Money, src PriceSource, display string) (*PortfolioView, error) {
	view := &PortfolioView{Currency: src.Quote(), Cash: cash}

	for asset, p := range positions {
		if asset == src.Quote() {
			continue
		}
		if p.Quantity.IsZero() && p.Realized.IsZero() {
			continue
		}
		av := AssetView{
			Asset:       asset,
			Quantity:    p.Quantity,
			AverageCost: p.AverageCost,
			CostBasis:   p.CostBasis(),
			Realized:    p.Realized,
			Partial:     p.Partial,
		}
		price, err := src.SpotPrice(ctx, asset)
		switch {
		case errors.Is(err, ErrStaleQuote):
			av.Stale = true
			av.MarketPrice = price
			av.MarketValue = price.Mul(p.Quantity)
			av.Unrealized = av.MarketValue.Sub(av.CostBasis)
		case errors.Is(err, ErrPriceUnavailable):
			log.Printf("no quote for %s, falling back to cost basis: %v", asset, err)
			av.Unquoted = true
			av.MarketValue = av.CostBasis
		case err != nil:
			return nil, err
		default:
			av.MarketPrice = price
			av.MarketValue = price.Mul(p.Quantity)
			av.Unrealized = av.MarketValue.Sub(av.CostBasis)
		}
		view.Assets = append(view.Assets, av)
		view.MarketValue = view.MarketValue.Add(av.MarketValue)
		view.CostBasis = view.CostBasis.Add(av.CostBasis)
		view.Realized = view.Realized.Add(av.Realized)
		view.Unrealized = view.Unrealized.Add(av.Unrealized)
	}
	view.MarketValue = view.MarketValue.Add(cash)

	for i := range view.Assets {
		view.Assets[i].Allocation = PercentOf(view.Assets[i].MarketValue, view.MarketValue)
	}
	view.CashAllocation = PercentOf(view.Cash, view.MarketValue)
	slices.SortFunc(view.Assets, func(a, b AssetView) int {
		switch {
		case b.MarketValue.LessThan(a.MarketValue):
			return -1
		case a.MarketValue.LessThan(b.MarketValue):
			return 1
		default:
			return strings.Compare(a.Asset, b.Asset)
		}
	})

	if display != "" && display != view.Currency {
		rate, err := src.FxRate(ctx, display)
		switch {
		case errors.Is(err, ErrStaleQuote):
			// an old rate beats refusing to convert
		case errors.Is(err, ErrPriceUnavailable):
			log.Printf("no %s/%s rate, report stays in %s: %v", view.Currency, display, view.Currency, err)
			return view, nil
		case err != nil:
			return nil, err
		}
		convert := func(m Money) Money { return m.Convert(rate, display) }
		for i := range view.Assets {
			a := &view.Assets[i]
			a.AverageCost = convert(a.AverageCost)
			a.CostBasis = convert(a.CostBasis)
			a.MarketPrice = convert(a.MarketPrice)
			a.MarketValue = convert(a.MarketValue)
			a.Realized = convert(a.Realized)
			a.Unrealized = convert(a.Unrealized)
		}
		view.Cash = convert(view.Cash)
		view.MarketValue = convert(view.MarketValue)
		view.CostBasis = convert(view.CostBasis)
		view.Realized = convert(view.Realized)
		view.Unrealized = convert(view.Unrealized)
		view.Currency = display
	}
	return view, nil
}
