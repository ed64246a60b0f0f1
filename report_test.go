package coinfolio

import (
	"context"
	"testing"
	"time"
)

func TestValuePortfolioAllocation(t *testing.T) {
	txs := []Transaction{
		tx("a", 0, "BTC", Buy, 1, 100),
		tx("b", 1, "ETH", Buy, 10, 10),
	}
	positions, err := ComputePortfolio(txs)
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{prices: map[string]float64{"BTC": 200, "ETH": 20}}
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if len(view.Assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(view.Assets))
	}
	// both worth 200, allocations 50/50, tie broken by symbol
	if view.Assets[0].Asset != "BTC" || view.Assets[1].Asset != "ETH" {
		t.Errorf("order = %s, %s, want BTC, ETH", view.Assets[0].Asset, view.Assets[1].Asset)
	}
	for _, a := range view.Assets {
		if !a.Allocation.Equal(50) {
			t.Errorf("%s allocation = %s, want 50.00%%", a.Asset, a.Allocation)
		}
	}
	if !view.MarketValue.Equal(M(400, "USDT")) {
		t.Errorf("total market value = %s, want 400 USDT", view.MarketValue)
	}
}

func TestValuePortfolioUnrealized(t *testing.T) {
	positions, err := ComputePortfolio([]Transaction{tx("a", 0, "BTC", Buy, 1, 100)})
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{prices: map[string]float64{"BTC": 150}}
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	a := view.Assets[0]
	if !a.MarketValue.Equal(M(150, "USDT")) {
		t.Errorf("MarketValue = %s, want 150 USDT", a.MarketValue)
	}
	// 150 - 100.1 cost basis
	if !a.Unrealized.Equal(M(49.9, "USDT")) {
		t.Errorf("Unrealized = %s, want 49.9 USDT", a.Unrealized)
	}
}

func TestValuePortfolioPriceUnavailableDegradesPerAsset(t *testing.T) {
	txs := []Transaction{
		tx("a", 0, "BTC", Buy, 1, 100),
		tx("b", 1, "DOGE", Buy, 100, 1),
	}
	positions, err := ComputePortfolio(txs)
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{prices: map[string]float64{"BTC": 200}} // no DOGE quote
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	var doge AssetView
	for _, a := range view.Assets {
		if a.Asset == "DOGE" {
			doge = a
		}
	}
	if !doge.Unquoted {
		t.Fatal("DOGE not flagged unquoted")
	}
	if !doge.MarketValue.Equal(doge.CostBasis) {
		t.Errorf("unquoted MarketValue = %s, want cost basis %s", doge.MarketValue, doge.CostBasis)
	}
	if !doge.Unrealized.IsZero() {
		t.Errorf("unquoted Unrealized = %s, want 0", doge.Unrealized)
	}
	// BTC still valued normally
	if view.Assets[0].Asset != "BTC" || !view.Assets[0].MarketValue.Equal(M(200, "USDT")) {
		t.Errorf("BTC line = %+v, want 200 USDT market value", view.Assets[0])
	}
}

func TestValuePortfolioDisplayCurrency(t *testing.T) {
	positions, err := ComputePortfolio([]Transaction{tx("a", 0, "BTC", Buy, 1, 100)})
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{
		prices: map[string]float64{"BTC": 200},
		rates:  map[string]float64{"BRL": 5},
	}
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "BRL")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if view.Currency != "BRL" {
		t.Fatalf("Currency = %s, want BRL", view.Currency)
	}
	a := view.Assets[0]
	if !a.MarketValue.Equal(M(1000, "BRL")) {
		t.Errorf("MarketValue = %s, want 1000 BRL", a.MarketValue)
	}
	if !a.CostBasis.Equal(M(500.5, "BRL")) {
		t.Errorf("CostBasis = %s, want 500.5 BRL", a.CostBasis)
	}
	// the same single rate applies to the totals
	if !view.MarketValue.Equal(M(1000, "BRL")) || !view.CostBasis.Equal(M(500.5, "BRL")) {
		t.Errorf("totals = %s / %s, want 1000 / 500.5 BRL", view.MarketValue, view.CostBasis)
	}
}

func TestValuePortfolioFxUnavailableFallsBackToQuote(t *testing.T) {
	positions, err := ComputePortfolio([]Transaction{tx("a", 0, "BTC", Buy, 1, 100)})
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{prices: map[string]float64{"BTC": 200}} // no rates at all
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "BRL")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if view.Currency != "USDT" {
		t.Errorf("Currency = %s, want fallback to USDT", view.Currency)
	}
	if !view.MarketValue.Equal(M(200, "USDT")) {
		t.Errorf("MarketValue = %s, want 200 USDT", view.MarketValue)
	}
}

func TestValuePortfolioKeepsClosedPositionWithRealized(t *testing.T) {
	txs := []Transaction{
		tx("a", 0, "BTC", Buy, 1, 100),
		tx("b", 1, "BTC", Sell, 1, 150),
	}
	positions, err := ComputePortfolio(txs)
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	src := &fakeSource{prices: map[string]float64{"BTC": 200}}
	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if len(view.Assets) != 1 {
		t.Fatalf("closed position with realized P&L dropped from the view")
	}
	a := view.Assets[0]
	if !a.Quantity.IsZero() || a.Realized.IsZero() {
		t.Errorf("line = %+v, want zero quantity with realized P&L", a)
	}
}

func TestValuePortfolioEmpty(t *testing.T) {
	view, err := ValuePortfolio(context.Background(), nil, M(0, "USDT"), &fakeSource{}, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if len(view.Assets) != 0 || !view.MarketValue.IsZero() {
		t.Errorf("empty view = %+v", view)
	}
}

func TestValuePortfolioCashLine(t *testing.T) {
	txs := []Transaction{
		tx("a", 0, "USDT", Buy, 500, 1), // deposit
		tx("b", 1, "BTC", Buy, 1, 100),
	}
	positions, err := ComputePortfolio(txs)
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	cash := ComputeCash("USDT", txs) // 500 - 100.1
	src := &fakeSource{prices: map[string]float64{"BTC": 100.1}}
	view, err := ValuePortfolio(context.Background(), positions, cash, src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	// the quote asset is the cash line, never an asset line
	if len(view.Assets) != 1 || view.Assets[0].Asset != "BTC" {
		t.Fatalf("assets = %+v, want only BTC", view.Assets)
	}
	if !view.Cash.Equal(M(399.9, "USDT")) {
		t.Errorf("Cash = %s, want 399.9 USDT", view.Cash)
	}
	// total 100.1 + 399.9 = 500, so BTC holds 20.02% and cash 79.98%
	if !view.MarketValue.Equal(M(500, "USDT")) {
		t.Errorf("MarketValue = %s, want 500 USDT including cash", view.MarketValue)
	}
	if !view.Assets[0].Allocation.Equal(20.02) {
		t.Errorf("BTC allocation = %s, want 20.02%%", view.Assets[0].Allocation)
	}
	if !view.CashAllocation.Equal(79.98) {
		t.Errorf("cash allocation = %s, want 79.98%%", view.CashAllocation)
	}
}

func TestValuePortfolioCashConvertedWithView(t *testing.T) {
	src := &fakeSource{rates: map[string]float64{"BRL": 5}}
	view, err := ValuePortfolio(context.Background(), nil, M(100, "USDT"), src, "BRL")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	if view.Currency != "BRL" || !view.Cash.Equal(M(500, "BRL")) {
		t.Errorf("cash = %s in %s, want 500 BRL", view.Cash, view.Currency)
	}
	if !view.MarketValue.Equal(M(500, "BRL")) {
		t.Errorf("MarketValue = %s, want 500 BRL", view.MarketValue)
	}
}

func TestValuePortfolioFlagsStaleQuote(t *testing.T) {
	positions, err := ComputePortfolio([]Transaction{tx("a", 0, "BTC", Buy, 1, 100)})
	if err != nil {
		t.Fatalf("ComputePortfolio() error = %v", err)
	}
	inner := &fakeSource{prices: map[string]float64{"BTC": 150}}
	src := NewCachedSource(inner, time.Minute)
	now := time.Now()
	src.now = func() time.Time { return now }

	if _, err := src.SpotPrice(context.Background(), "BTC"); err != nil {
		t.Fatalf("SpotPrice() error = %v", err)
	}
	delete(inner.prices, "BTC") // feed goes dark
	now = now.Add(2 * time.Minute)

	view, err := ValuePortfolio(context.Background(), positions, M(0, "USDT"), src, "")
	if err != nil {
		t.Fatalf("ValuePortfolio() error = %v", err)
	}
	a := view.Assets[0]
	if !a.Stale {
		t.Fatal("asset priced from an expired cache entry not flagged stale")
	}
	if a.Unquoted {
		t.Error("stale asset also flagged unquoted")
	}
	if !a.MarketValue.Equal(M(150, "USDT")) {
		t.Errorf("MarketValue = %s, want 150 USDT from the cached quote", a.MarketValue)
	}
	if !a.Unrealized.Equal(M(49.9, "USDT")) {
		t.Errorf("Unrealized = %s, want 49.9 USDT", a.Unrealized)
	}
}
