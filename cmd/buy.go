package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

type buyCmd struct {
	date     string
	asset    string
	quantity string
	price    string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a purchase of an asset" }
func (*buyCmd) Usage() string {
	return `buy -a <asset> -q <quantity> -p <price> [-d <datetime>]

  Records a BUY in the ledger. The price is the unit price in the quote
  currency; the exchange fee is accounted for by the cost-basis engine,
  not stored in the ledger.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction time (\"2006-01-02 15:04:05\" or a date), defaults to now")
	f.StringVar(&c.asset, "a", "", "Asset symbol, e.g. BTC")
	f.StringVar(&c.quantity, "q", "", "Quantity bought")
	f.StringVar(&c.price, "p", "", "Unit price in the quote currency")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return record(f, c.date, c.asset, c.quantity, c.price, coinfolio.Buy)
}

// record validates the common buy/sell flags and appends the transaction.
func record(f *flag.FlagSet, date, asset, quantity, price string, side coinfolio.Side) subcommands.ExitStatus {
	if asset == "" || quantity == "" || price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	when, err := parseWhen(date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	qty, err := coinfolio.ParseQuantity(quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
		return subcommands.ExitUsageError
	}
	book, err := openBook(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	unit, err := coinfolio.ParseQuantity(price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}

	var tx coinfolio.Transaction
	if side == coinfolio.Buy {
		tx = coinfolio.NewBuy(asset, qty, coinfolio.M(unit.Value(), book.Quote()))
	} else {
		tx = coinfolio.NewSell(asset, qty, coinfolio.M(unit.Value(), book.Quote()))
	}
	tx.Time = when

	// a buy funded beyond the recorded deposits is allowed (history can be
	// completed later) but worth a warning, like an overdraft
	if tx.Side == coinfolio.Buy && tx.Asset != book.Quote() {
		cost := tx.CashDelta(book.Quote()).Neg()
		if balance := book.CashBalance(); balance.LessThan(cost) {
			fmt.Fprintf(os.Stderr, "Warning: cost %s exceeds the cash balance %s\n", cost, balance)
		}
	}

	if err := book.Add(tx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (id %s)\n", renderer.Transaction(tx), tx.ID)
	return subcommands.ExitSuccess
}
