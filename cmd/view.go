package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

type viewCmd struct {
	currency string
	offline  bool
}

func (*viewCmd) Name() string     { return "view" }
func (*viewCmd) Synopsis() string { return "value the portfolio at current prices" }
func (*viewCmd) Usage() string {
	return `view [-c <currency>] [-offline]

  Replays the whole ledger, prices every position against the live feed and
  prints the valued portfolio with allocations. With -offline (or when the
  feed is unreachable) positions are valued at cost basis. The display
  currency defaults to COINFOLIO_FIAT, then to the feed's quote currency.
`
}

func (c *viewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Display currency, e.g. BRL.")
	f.BoolVar(&c.offline, "offline", false, "Skip the price feed, value at cost basis.")
}

func (c *viewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	book, err := openBook(c.offline)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	view, err := book.PortfolioView(ctx, displayCurrency(c.currency))
	if err != nil {
		var oe *coinfolio.OversellError
		if !errors.As(err, &oe) {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		// partial positions are flagged in the report itself
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	printMarkdown(renderer.PortfolioMarkdown(view))
	return subcommands.ExitSuccess
}
