package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinfolio"
)

// Transaction renders a one line human summary of a transaction.
func Transaction(tx coinfolio.Transaction) string {
	switch tx.Side {
	case coinfolio.Buy:
		return fmt.Sprintf("Bought %s %s at %s", tx.Quantity, tx.Asset, tx.Price)
	case coinfolio.Sell:
		return fmt.Sprintf("Sold %s %s at %s", tx.Quantity, tx.Asset, tx.Price)
	default:
		return tx.String()
	}
}

// Transactions renders the ledger log as a markdown table.
func Transactions(txs []coinfolio.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\n")
	if len(txs) == 0 {
		fmt.Fprintln(&b, "The ledger is empty.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Date | Side | Asset | Quantity | Unit Price | Amount | ID |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|:---|")
	for _, tx := range txs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			tx.Time.Format(coinfolio.TimeLayout),
			tx.Side,
			tx.Asset,
			tx.Quantity,
			tx.Price,
			tx.GrossAmount(),
			tx.ID,
		)
	}
	return b.String()
}

// CorruptRecords renders the rows skipped at load time, so the user can
// repair the file by hand.
func CorruptRecords(records []coinfolio.CorruptRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Skipped ledger rows\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- line %d (`%s`): %v\n", r.Line, strings.Join(r.Fields, ","), r.Err)
	}
	return b.String()
}
