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

type sellCmd struct {
	date     string
	asset    string
	quantity string
	price    string
	all      bool
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale, or close a whole position at spot price" }
func (*sellCmd) Usage() string {
	return `sell -a <asset> -q <quantity> -p <price> [-d <datetime>]
sell -a <asset> -all

  Records a SELL in the ledger. With -all, the whole held quantity is sold
  at the current spot price from the live feed.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction time (\"2006-01-02 15:04:05\" or a date), defaults to now")
	f.StringVar(&c.asset, "a", "", "Asset symbol, e.g. BTC")
	f.StringVar(&c.quantity, "q", "", "Quantity sold")
	f.StringVar(&c.price, "p", "", "Unit price in the quote currency")
	f.BoolVar(&c.all, "all", false, "Sell the whole position at the current spot price")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.all {
		return record(f, c.date, c.asset, c.quantity, c.price, coinfolio.Sell)
	}
	if c.asset == "" || c.quantity != "" || c.price != "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	book, err := openBook(false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	tx, err := book.SellAll(ctx, c.asset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (id %s)\n", renderer.Transaction(tx), tx.ID)
	return subcommands.ExitSuccess
}
