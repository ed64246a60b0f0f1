package coinfolio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testTickerServer(t *testing.T, prices map[string]string) *BinanceSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			http.NotFound(w, r)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		price, ok := prices[symbol]
		if !ok {
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"symbol":"` + symbol + `","price":"` + price + `"}`))
	}))
	t.Cleanup(srv.Close)
	return newBinanceSource(srv.URL)
}

func TestBinanceSpotPrice(t *testing.T) {
	src := testTickerServer(t, map[string]string{"BTCUSDT": "43250.10"})
	got, err := src.SpotPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("SpotPrice() error = %v", err)
	}
	if !got.Equal(M(43250.10, "USDT")) {
		t.Errorf("SpotPrice() = %s, want 43250.10 USDT", got)
	}
}

func TestBinanceQuoteCurrencyIsOne(t *testing.T) {
	src := testTickerServer(t, nil) // no request must be made
	got, err := src.SpotPrice(context.Background(), "USDT")
	if err != nil {
		t.Fatalf("SpotPrice(USDT) error = %v", err)
	}
	if !got.Equal(M(1, "USDT")) {
		t.Errorf("SpotPrice(USDT) = %s, want 1 USDT", got)
	}
}

func TestBinanceFxRate(t *testing.T) {
	src := testTickerServer(t, map[string]string{"USDTBRL": "5.43"})
	got, err := src.FxRate(context.Background(), "BRL")
	if err != nil {
		t.Fatalf("FxRate() error = %v", err)
	}
	if !got.Equal(decimal.NewFromFloat(5.43)) {
		t.Errorf("FxRate() = %s, want 5.43", got)
	}
}

func TestBinanceUnknownSymbol(t *testing.T) {
	src := testTickerServer(t, nil)
	if _, err := src.SpotPrice(context.Background(), "NOPE"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("SpotPrice() error = %v, want ErrPriceUnavailable", err)
	}
}

func TestBinanceMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT"}`)) // no price field
	}))
	t.Cleanup(srv.Close)
	src := newBinanceSource(srv.URL)
	if _, err := src.SpotPrice(context.Background(), "BTC"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("SpotPrice() error = %v, want ErrPriceUnavailable", err)
	}
}

func TestBinanceServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	src := newBinanceSource(srv.URL)
	if _, err := src.SpotPrice(context.Background(), "BTC"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("SpotPrice() error = %v, want ErrPriceUnavailable", err)
	}
}

func TestCachedSourceServesWithinTTL(t *testing.T) {
	inner := &fakeSource{prices: map[string]float64{"BTC": 100}}
	src := NewCachedSource(inner, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := src.SpotPrice(context.Background(), "BTC"); err != nil {
			t.Fatalf("SpotPrice() error = %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner source called %d times, want 1", inner.calls)
	}
}

func TestCachedSourceRefreshesAfterTTL(t *testing.T) {
	inner := &fakeSource{prices: map[string]float64{"BTC": 100}}
	src := NewCachedSource(inner, time.Minute)
	now := time.Now()
	src.now = func() time.Time { return now }

	src.SpotPrice(context.Background(), "BTC")
	now = now.Add(2 * time.Minute)
	inner.prices["BTC"] = 120
	got, err := src.SpotPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("SpotPrice() error = %v", err)
	}
	if !got.Equal(M(120, "USDT")) {
		t.Errorf("SpotPrice() after TTL = %s, want refreshed 120 USDT", got)
	}
	if inner.calls != 2 {
		t.Errorf("inner source called %d times, want 2", inner.calls)
	}
}

func TestCachedSourceServesStaleOnFeedFailure(t *testing.T) {
	inner := &fakeSource{prices: map[string]float64{"BTC": 100}}
	src := NewCachedSource(inner, time.Nanosecond)

	if _, err := src.SpotPrice(context.Background(), "BTC"); err != nil {
		t.Fatalf("SpotPrice() error = %v", err)
	}
	delete(inner.prices, "BTC") // feed goes dark
	time.Sleep(time.Millisecond)
	got, err := src.SpotPrice(context.Background(), "BTC")
	if !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("SpotPrice() after feed failure error = %v, want ErrStaleQuote", err)
	}
	if errors.Is(err, ErrPriceUnavailable) {
		t.Error("stale quote must not read as unavailable")
	}
	if !got.Equal(M(100, "USDT")) {
		t.Errorf("stale quote = %s, want 100 USDT", got)
	}
}

func TestCachedSourceServesStaleRateOnFeedFailure(t *testing.T) {
	inner := &fakeSource{rates: map[string]float64{"BRL": 5}}
	src := NewCachedSource(inner, time.Nanosecond)

	if _, err := src.FxRate(context.Background(), "BRL"); err != nil {
		t.Fatalf("FxRate() error = %v", err)
	}
	delete(inner.rates, "BRL")
	time.Sleep(time.Millisecond)
	got, err := src.FxRate(context.Background(), "BRL")
	if !errors.Is(err, ErrStaleQuote) {
		t.Fatalf("FxRate() after feed failure error = %v, want ErrStaleQuote", err)
	}
	if !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stale rate = %s, want 5", got)
	}
}

func TestOffline(t *testing.T) {
	src := Offline{}
	if src.Quote() != "USDT" {
		t.Errorf("Quote() = %s, want USDT", src.Quote())
	}
	if _, err := src.SpotPrice(context.Background(), "BTC"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("SpotPrice() error = %v, want ErrPriceUnavailable", err)
	}
	if _, err := src.FxRate(context.Background(), "BRL"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("FxRate() error = %v, want ErrPriceUnavailable", err)
	}
}
