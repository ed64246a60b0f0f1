// Package renderer turns portfolio reports into markdown strings.
package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/coinfolio"
)

// PortfolioMarkdown renders the valued portfolio as a markdown report:
// one line per asset with allocation, the cash balance, then totals, then
// footnotes for degraded lines.
func PortfolioMarkdown(view *coinfolio.PortfolioView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio (%s)\n\n", view.Currency)

	if len(view.Assets) == 0 && view.Cash.IsZero() {
		fmt.Fprintln(&b, "The ledger is empty.")
		return b.String()
	}

	fmt.Fprintln(&b, "| Asset | Quantity | Avg Cost | Cost Basis | Price | Market Value | Unrealized | Realized | Alloc |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|---:|")
	for _, a := range view.Assets {
		name := a.Asset
		if a.Unquoted {
			name += " ¹"
		}
		if a.Partial {
			name += " ²"
		}
		if a.Stale {
			name += " ³"
		}
		price := "-"
		if !a.Unquoted {
			price = a.MarketPrice.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			name,
			a.Quantity,
			a.AverageCost,
			a.CostBasis,
			price,
			a.MarketValue,
			a.Unrealized.SignedString(),
			a.Realized.SignedString(),
			a.Allocation,
		)
	}
	if !view.Cash.IsZero() {
		fmt.Fprintf(&b, "| Cash | | | | | %s | | | %s |\n", view.Cash, view.CashAllocation)
	}
	fmt.Fprintf(&b, "| **Total** | | | %s | | %s | %s | %s | |\n",
		view.CostBasis,
		view.MarketValue,
		view.Unrealized.SignedString(),
		view.Realized.SignedString(),
	)

	ConditionalBlock(&b, func(w *strings.Builder) bool {
		printed := false
		for _, a := range view.Assets {
			if a.Unquoted {
				fmt.Fprintln(w, "\n¹ no live quote, valued at cost basis")
				printed = true
				break
			}
		}
		for _, a := range view.Assets {
			if a.Partial {
				fmt.Fprintln(w, "\n² history oversells the position, valued up to the offending sale")
				printed = true
				break
			}
		}
		for _, a := range view.Assets {
			if a.Stale {
				fmt.Fprintln(w, "\n³ feed unreachable, priced from the last cached quote")
				printed = true
				break
			}
		}
		return printed
	})
	return b.String()
}
