// README: Common money value object used across modules.
package types

import (
	"fmt"
	"math"
)

// Money is an amount in cents. Monetary fields cross the wire formatted to
// two decimal places, so marshalling goes through Format rather than raw
// cents.
type Money struct {
	Amount   int64
	Currency string
}

func NewMoney(cents int64) Money {
	return Money{Amount: cents, Currency: "SGD"}
}

// MoneyFromFloat converts a decimal amount (e.g. 15.5 from a JSON body)
// into cents, rounding half away from zero.
func MoneyFromFloat(v float64) Money {
	return NewMoney(int64(math.Round(v * 100)))
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}
}

// Format renders the amount with exactly two decimal places.
func (m Money) Format() string {
	sign := ""
	cents := m.Amount
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (m Money) Float() float64 {
	return float64(m.Amount) / 100
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}
