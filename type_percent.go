package coinfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a percentage value, e.g. Percent(42.5) renders as "42.50%".
type Percent float64

// PercentOf returns part/total as a Percent, and 0 when total is zero.
func PercentOf(part, total Money) Percent {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Ratio(total).Mul(decimal.NewFromInt(100)).Float64()
	return Percent(f)
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}
