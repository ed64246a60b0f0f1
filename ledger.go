package coinfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ErrIO wraps any store failure caused by the underlying file.
var ErrIO = errors.New("ledger i/o failure")

// ErrNotFound is returned when no transaction carries the requested id.
var ErrNotFound = errors.New("transaction not found")

// csvHeader is the fixed column layout of the ledger file.
var csvHeader = []string{"id", "timestamp", "asset_symbol", "side", "quantity", "unit_price"}

// CorruptRecord describes one ledger row that could not be parsed. The row is
// excluded from the ledger and will not survive the next flush.
type CorruptRecord struct {
	Line   int
	Fields []string
	Err    error
}

func (c CorruptRecord) String() string {
	return fmt.Sprintf("line %d: %v", c.Line, c.Err)
}

// Ledger is the flat-file transaction store. It keeps transactions ordered
// by (timestamp, id) ascending and rewrites the whole file on every change.
type Ledger struct {
	path  string
	quote string // currency of every unit price, e.g. "USDT"
	txs   []Transaction
}

// OpenLedger opens the CSV ledger at path, creating an empty one (header only)
// when the file does not exist. Unparseable rows are returned as
// CorruptRecords; they never fail the load and are dropped on the next flush.
func OpenLedger(path, quote string) (*Ledger, []CorruptRecord, error) {
	l := &Ledger{path: path, quote: quote}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := l.Flush(); err != nil {
			return nil, nil, err
		}
		return l, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening %q: %w: %w", path, ErrIO, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length is checked per record

	// Records are read one at a time: a syntax error poisons only its own
	// row, never the load. Only the file itself failing is fatal.
	var corrupt []CorruptRecord
	first := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Printf("ledger %s line %d: skipping corrupt row: %v", path, perr.Line, err)
			corrupt = append(corrupt, CorruptRecord{Line: perr.Line, Fields: row, Err: err})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading %q: %w: %w", path, ErrIO, err)
		}
		line, _ := r.FieldPos(0)
		if first && slices.Equal(row, csvHeader) {
			first = false
			continue
		}
		first = false
		tx, err := parseRow(row, quote)
		if err != nil {
			log.Printf("ledger %s line %d: skipping corrupt row: %v", path, line, err)
			corrupt = append(corrupt, CorruptRecord{Line: line, Fields: row, Err: err})
			continue
		}
		l.txs = append(l.txs, tx)
	}
	l.sort()
	return l, corrupt, nil
}

// Quote returns the currency every stored unit price is denominated in.
func (l *Ledger) Quote() string { return l.quote }

// Transactions returns an ordered copy of the ledger entries.
func (l *Ledger) Transactions() []Transaction {
	return slices.Clone(l.txs)
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (Transaction, error) {
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return Transaction{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
}

// Append adds a transaction and flushes. The id must be unique.
func (l *Ledger) Append(tx Transaction) error {
	if _, err := l.Get(tx.ID); err == nil {
		return fmt.Errorf("id %q already in ledger", tx.ID)
	}
	l.txs = append(l.txs, tx)
	l.sort()
	return l.Flush()
}

// Update replaces the transaction with the given id and flushes.
// The replacement keeps the id.
func (l *Ledger) Update(id string, tx Transaction) error {
	for i := range l.txs {
		if l.txs[i].ID == id {
			tx.ID = id
			l.txs[i] = tx
			l.sort()
			return l.Flush()
		}
	}
	return fmt.Errorf("id %q: %w", id, ErrNotFound)
}

// Delete removes the transaction with the given id and flushes.
func (l *Ledger) Delete(id string) error {
	for i := range l.txs {
		if l.txs[i].ID == id {
			l.txs = slices.Delete(l.txs, i, i+1)
			return l.Flush()
		}
	}
	return fmt.Errorf("id %q: %w", id, ErrNotFound)
}

// Flush rewrites the ledger file durably: the new content goes to a temp file
// in the same directory, is fsynced, then renamed over the original so a
// crash mid-write leaves the previous file intact.
func (l *Ledger) Flush() error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("flushing %q: %w: %w", l.path, ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Write(csvHeader)
	for _, tx := range l.txs {
		w.Write([]string{
			tx.ID,
			tx.Time.Format(TimeLayout),
			tx.Asset,
			string(tx.Side),
			tx.Quantity.String(),
			tx.Price.Amount().String(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing %q: %w: %w", l.path, ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing %q: %w: %w", l.path, ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flushing %q: %w: %w", l.path, ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("flushing %q: %w: %w", l.path, ErrIO, err)
	}
	return nil
}

func (l *Ledger) sort() {
	slices.SortStableFunc(l.txs, func(a, b Transaction) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})
}

// parseRow decodes one CSV row into a transaction priced in quote.
func parseRow(row []string, quote string) (Transaction, error) {
	if len(row) != len(csvHeader) {
		return Transaction{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(row))
	}
	id := row[0]
	if id == "" {
		return Transaction{}, errors.New("empty id")
	}
	ts, err := time.Parse(TimeLayout, row[1])
	if err != nil {
		return Transaction{}, fmt.Errorf("timestamp: %w", err)
	}
	side, err := ParseSide(row[3])
	if err != nil {
		return Transaction{}, err
	}
	qty, err := ParseQuantity(row[4])
	if err != nil {
		return Transaction{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := decimal.NewFromString(row[5])
	if err != nil {
		return Transaction{}, fmt.Errorf("unit_price: %w", err)
	}
	tx := Transaction{
		ID:       id,
		Time:     ts,
		Asset:    row[2],
		Side:     side,
		Quantity: qty,
		Price:    M(price, quote),
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
