package coinfolio

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the timestamp format used in the ledger file and the CLI.
const TimeLayout = "2006-01-02 15:04:05"

// Side is the direction of a transaction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide parses "BUY" or "SELL".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Transaction is a single immutable ledger entry: one buy or sell of an
// asset at a unit price. Transactions are facts; positions are always
// recomputed from them, never stored.
type Transaction struct {
	ID       string
	Time     time.Time
	Asset    string
	Side     Side
	Quantity Quantity
	Price    Money // unit price in the quote currency
}

// NewBuy creates a BUY with a fresh id, timestamped now.
func NewBuy(asset string, quantity Quantity, price Money) Transaction {
	return newTx(asset, Buy, quantity, price)
}

// NewSell creates a SELL with a fresh id, timestamped now.
func NewSell(asset string, quantity Quantity, price Money) Transaction {
	return newTx(asset, Sell, quantity, price)
}

func newTx(asset string, side Side, quantity Quantity, price Money) Transaction {
	return Transaction{
		ID:       uuid.NewString(),
		Time:     time.Now().Truncate(time.Second),
		Asset:    asset,
		Side:     side,
		Quantity: quantity,
		Price:    price,
	}
}

// Before reports whether t is ordered before u in the ledger: by timestamp,
// ties broken by id so that replay order is deterministic.
func (t Transaction) Before(u Transaction) bool {
	if !t.Time.Equal(u.Time) {
		return t.Time.Before(u.Time)
	}
	return t.ID < u.ID
}

// GrossAmount returns quantity times unit price, before fees.
func (t Transaction) GrossAmount() Money { return t.Price.Mul(t.Quantity) }

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s @ %s", t.Side, t.Quantity, t.Asset, t.Price)
}

// ValidationError rejects a transaction before it reaches the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction: %s %s", e.Field, e.Reason)
}

// Validate checks the transaction fields. It returns a *ValidationError
// describing the first problem found, or nil.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Reason: "is empty"}
	}
	if !validAsset(t.Asset) {
		return &ValidationError{Field: "asset", Reason: fmt.Sprintf("%q is not a symbol like BTC or ETH", t.Asset)}
	}
	if t.Side != Buy && t.Side != Sell {
		return &ValidationError{Field: "side", Reason: fmt.Sprintf("%q is not BUY or SELL", string(t.Side))}
	}
	if !t.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Reason: "must be strictly positive"}
	}
	if !t.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "must be strictly positive"}
	}
	if t.Time.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is missing"}
	}
	return nil
}

// validAsset accepts short uppercase alphanumeric symbols (BTC, ETH, 1INCH).
func validAsset(s string) bool {
	if len(s) < 2 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
