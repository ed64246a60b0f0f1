package coinfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable wraps every spot price or fx rate failure: network
// errors, timeouts, HTTP error statuses and malformed payloads alike. The
// valuation report degrades per asset on it instead of aborting.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrStaleQuote marks a quote served from the cache past its TTL because the
// feed could not refresh it. The value returned alongside it is usable but
// old, and callers should surface the staleness.
var ErrStaleQuote = errors.New("stale quote")

// PriceSource quotes spot prices in a fixed quote currency.
type PriceSource interface {
	// SpotPrice returns the current price of one unit of asset, in the
	// source's quote currency.
	SpotPrice(ctx context.Context, asset string) (Money, error)
	// FxRate returns the rate converting one unit of the quote currency
	// into the given fiat currency.
	FxRate(ctx context.Context, fiat string) (decimal.Decimal, error)
	// Quote returns the quote currency code, e.g. "USDT".
	Quote() string
}

const binanceURL = "https://api.binance.com"

// spotTimeout bounds every ticker request so a stalled exchange degrades the
// report instead of hanging it.
const spotTimeout = 4 * time.Second

// BinanceSource quotes assets against USDT from the public Binance ticker.
type BinanceSource struct {
	baseURL string
	client  *http.Client
}

// NewBinanceSource creates a source backed by the public Binance API.
func NewBinanceSource() *BinanceSource {
	return newBinanceSource(binanceURL)
}

func newBinanceSource(baseURL string) *BinanceSource {
	return &BinanceSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: spotTimeout},
	}
}

func (s *BinanceSource) Quote() string { return "USDT" }

// SpotPrice fetches the <ASSET>USDT ticker. The quote currency itself is
// worth exactly 1.
func (s *BinanceSource) SpotPrice(ctx context.Context, asset string) (Money, error) {
	if asset == s.Quote() {
		return M(1, s.Quote()), nil
	}
	price, err := s.ticker(ctx, asset+s.Quote())
	if err != nil {
		return Money{}, err
	}
	return M(price, s.Quote()), nil
}

// FxRate converts USDT into fiat through the USDT<FIAT> ticker.
func (s *BinanceSource) FxRate(ctx context.Context, fiat string) (decimal.Decimal, error) {
	if fiat == s.Quote() {
		return decimal.NewFromInt(1), nil
	}
	return s.ticker(ctx, s.Quote()+fiat)
}

// ticker fetches /api/v3/ticker/price for one symbol and extracts the price.
func (s *BinanceSource) ticker(ctx context.Context, symbol string) (decimal.Decimal, error) {
	u := s.baseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: status %s", symbol, ErrPriceUnavailable, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	raw, err := jsonpath.Get("$.price", jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	str, ok := raw.(string)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: price is %T, not a string", symbol, ErrPriceUnavailable, raw)
	}
	price, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ticker %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	return price, nil
}

// CachedSource keeps the last good quote of each symbol for a TTL, so a
// report loop keeps rendering between feed refreshes and a flaky feed serves
// stale-but-recent prices instead of failing.
type CachedSource struct {
	src PriceSource
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	prices map[string]cachedQuote
	rates  map[string]cachedRate
}

type cachedQuote struct {
	price Money
	at    time.Time
}

type cachedRate struct {
	rate decimal.Decimal
	at   time.Time
}

// NewCachedSource wraps src with a per-symbol cache holding quotes for ttl.
func NewCachedSource(src PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		src:    src,
		ttl:    ttl,
		now:    time.Now,
		prices: make(map[string]cachedQuote),
		rates:  make(map[string]cachedRate),
	}
}

func (c *CachedSource) Quote() string { return c.src.Quote() }

func (c *CachedSource) SpotPrice(ctx context.Context, asset string) (Money, error) {
	c.mu.Lock()
	q, ok := c.prices[asset]
	c.mu.Unlock()
	if ok && c.now().Sub(q.at) < c.ttl {
		return q.price, nil
	}
	price, err := c.src.SpotPrice(ctx, asset)
	if err != nil {
		// serve the expired quote rather than nothing, flagged stale
		if ok {
			return q.price, fmt.Errorf("%s quote from %s: %w (feed: %v)", asset, q.at.Format(time.RFC3339), ErrStaleQuote, err)
		}
		return Money{}, err
	}
	c.mu.Lock()
	c.prices[asset] = cachedQuote{price: price, at: c.now()}
	c.mu.Unlock()
	return price, nil
}

func (c *CachedSource) FxRate(ctx context.Context, fiat string) (decimal.Decimal, error) {
	c.mu.Lock()
	r, ok := c.rates[fiat]
	c.mu.Unlock()
	if ok && c.now().Sub(r.at) < c.ttl {
		return r.rate, nil
	}
	rate, err := c.src.FxRate(ctx, fiat)
	if err != nil {
		if ok {
			return r.rate, fmt.Errorf("%s rate from %s: %w (feed: %v)", fiat, r.at.Format(time.RFC3339), ErrStaleQuote, err)
		}
		return decimal.Decimal{}, err
	}
	c.mu.Lock()
	c.rates[fiat] = cachedRate{rate: rate, at: c.now()}
	c.mu.Unlock()
	return rate, nil
}

// Offline is a source that never quotes. Valuation over it falls back to
// cost basis for every asset, which is what the -offline report wants.
type Offline struct{ QuoteCur string }

func (o Offline) Quote() string {
	if o.QuoteCur == "" {
		return "USDT"
	}
	return o.QuoteCur
}

func (o Offline) SpotPrice(ctx context.Context, asset string) (Money, error) {
	return Money{}, fmt.Errorf("offline: %w", ErrPriceUnavailable)
}

func (o Offline) FxRate(ctx context.Context, fiat string) (decimal.Decimal, error) {
	return decimal.Decimal{}, fmt.Errorf("offline: %w", ErrPriceUnavailable)
}
