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

type editCmd struct {
	id       string
	date     string
	asset    string
	side     string
	quantity string
	price    string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a recorded transaction by id" }
func (*editCmd) Usage() string {
	return `edit -id <id> [-d <datetime>] [-a <asset>] [-side BUY|SELL] [-q <quantity>] [-p <price>]

  Replaces fields of an existing transaction. Only the given flags change;
  the id is kept. Positions are recomputed from the edited history, so
  every derived value reflects the change.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the transaction to edit")
	f.StringVar(&c.date, "d", "", "New transaction time")
	f.StringVar(&c.asset, "a", "", "New asset symbol")
	f.StringVar(&c.side, "side", "", "New side, BUY or SELL")
	f.StringVar(&c.quantity, "q", "", "New quantity")
	f.StringVar(&c.price, "p", "", "New unit price")
}

func (c *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	book, err := openBook(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	tx, err := book.Get(c.id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.date != "" {
		when, err := parseWhen(c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		tx.Time = when
	}
	if c.asset != "" {
		tx.Asset = c.asset
	}
	if c.side != "" {
		side, err := coinfolio.ParseSide(c.side)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		tx.Side = side
	}
	if c.quantity != "" {
		qty, err := coinfolio.ParseQuantity(c.quantity)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
			return subcommands.ExitUsageError
		}
		tx.Quantity = qty
	}
	if c.price != "" {
		unit, err := coinfolio.ParseQuantity(c.price)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
			return subcommands.ExitUsageError
		}
		tx.Price = coinfolio.M(unit.Value(), book.Quote())
	}

	if err := book.Edit(c.id, tx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Edited %s: %s\n", c.id, renderer.Transaction(tx))
	return subcommands.ExitSuccess
}
