package coinfolio

import (
	"context"
	"fmt"
)

// Book is the presentation boundary: it binds the ledger store, the
// cost-basis engine, the price source and the valuation reporter behind the
// operations the CLI needs. Every mutation validates first, then stores and
// flushes; every view is recomputed from the full ledger.
type Book struct {
	ledger  *Ledger
	src     PriceSource
	corrupt []CorruptRecord
}

// NewBook opens the ledger at path and binds it to the price source. Corrupt
// rows found at load are kept for reporting through Corrupt().
func NewBook(path string, src PriceSource) (*Book, error) {
	ledger, corrupt, err := OpenLedger(path, src.Quote())
	if err != nil {
		return nil, err
	}
	return &Book{ledger: ledger, src: src, corrupt: corrupt}, nil
}

// Corrupt returns the unparseable ledger rows skipped at load time.
func (b *Book) Corrupt() []CorruptRecord { return b.corrupt }

// Quote returns the quote currency of the book's price source.
func (b *Book) Quote() string { return b.src.Quote() }

// Transactions returns the ordered ledger entries.
func (b *Book) Transactions() []Transaction { return b.ledger.Transactions() }

// Get returns the transaction with the given id.
func (b *Book) Get(id string) (Transaction, error) { return b.ledger.Get(id) }

// Add validates and appends a transaction.
func (b *Book) Add(tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return b.ledger.Append(tx)
}

// Edit validates and replaces the transaction with the given id. The edit
// changes history, so every position derived afterwards reflects it.
func (b *Book) Edit(id string, tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return b.ledger.Update(id, tx)
}

// Remove deletes the transaction with the given id.
func (b *Book) Remove(id string) error { return b.ledger.Delete(id) }

// Position replays the given asset's history.
func (b *Book) Position(asset string) (Position, error) {
	return ComputePosition(asset, b.ledger.Transactions())
}

// CashBalance returns the quote-currency balance derived from the ledger:
// deposits and withdrawals of the quote asset, minus the cost of buys, plus
// the net proceeds of sells.
func (b *Book) CashBalance() Money {
	return ComputeCash(b.src.Quote(), b.ledger.Transactions())
}

// Holding returns the quantity of asset currently held.
func (b *Book) Holding(asset string) (Quantity, error) {
	p, err := ComputePosition(asset, b.ledger.Transactions())
	if err != nil {
		return Quantity{}, err
	}
	return p.Quantity, nil
}

// SellAll closes the full position of an asset at the current spot price and
// records the resulting SELL.
func (b *Book) SellAll(ctx context.Context, asset string) (Transaction, error) {
	held, err := b.Holding(asset)
	if err != nil {
		return Transaction{}, err
	}
	if !held.IsPositive() {
		return Transaction{}, fmt.Errorf("nothing of %s to sell", asset)
	}
	price, err := b.src.SpotPrice(ctx, asset)
	if err != nil {
		return Transaction{}, err
	}
	tx := NewSell(asset, held, price)
	if err := b.Add(tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// PortfolioView replays the whole ledger and values it in the display
// currency. Oversell errors are returned alongside the view: the affected
// positions are flagged partial, the others are valued normally.
func (b *Book) PortfolioView(ctx context.Context, display string) (*PortfolioView, error) {
	txs := b.ledger.Transactions()
	positions, overErr := ComputePortfolio(txs)
	view, err := ValuePortfolio(ctx, positions, ComputeCash(b.src.Quote(), txs), b.src, display)
	if err != nil {
		return nil, err
	}
	return view, overErr
}
