// Package cmd implements the CLI application to manage a DCA crypto ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&editCmd{}, "transactions")
	c.Register(&deleteCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&viewCmd{}, "reports")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "transactions.csv", "Path to the ledger file containing transactions (CSV format)")

// quoteTTL is how long a fetched quote stays fresh before the feed is asked again.
const quoteTTL = 60 * time.Second

// openBook opens the ledger behind the live price feed, or behind a mute
// source when offline. Rows skipped at load are reported on stderr.
func openBook(offline bool) (*coinfolio.Book, error) {
	var src coinfolio.PriceSource
	if offline {
		src = coinfolio.Offline{}
	} else {
		src = coinfolio.NewCachedSource(coinfolio.NewBinanceSource(), quoteTTL)
	}
	book, err := coinfolio.NewBook(*ledgerFile, src)
	if err != nil {
		return nil, err
	}
	if records := book.Corrupt(); len(records) > 0 {
		fmt.Fprint(os.Stderr, renderer.CorruptRecords(records))
	}
	return book, nil
}

// displayCurrency is the report currency: the COINFOLIO_FIAT environment
// variable, unless a flag overrides it.
func displayCurrency(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("COINFOLIO_FIAT")
}

// parseWhen parses a transaction timestamp flag, accepting a full timestamp
// or a bare date. Empty means now.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Now().Truncate(time.Second), nil
	}
	if t, err := time.Parse(coinfolio.TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q as %q or as a date", s, coinfolio.TimeLayout)
	}
	return t, nil
}
