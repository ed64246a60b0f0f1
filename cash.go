package coinfolio

// CashDelta returns the transaction's effect on the quote-currency cash
// balance. Trades of the quote asset itself are cash movements: a BUY is a
// deposit of the quantity, a SELL a withdrawal. Any other BUY consumes cash
// for its full cost including the fee, any other SELL credits the net
// proceeds.
func (t Transaction) CashDelta(quote string) Money {
	if t.Asset == quote {
		amount := M(t.Quantity.Value(), quote)
		if t.Side == Sell {
			return amount.Neg()
		}
		return amount
	}
	switch t.Side {
	case Buy:
		return t.GrossAmount().Scale(feeBuy).Neg()
	case Sell:
		return t.GrossAmount().Scale(feeSell)
	}
	return M(0, quote)
}

// ComputeCash sums the cash effect of every transaction. Like positions, the
// balance is derived in full from the ledger on every call. It goes negative
// when the recorded buys outspend the recorded deposits.
func ComputeCash(quote string, txs []Transaction) Money {
	balance := M(0, quote)
	for _, tx := range txs {
		balance = balance.Add(tx.CashDelta(quote))
	}
	return balance
}
