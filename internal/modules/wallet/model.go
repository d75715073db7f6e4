// README: Wallet record and the typed insufficient-funds error.
package wallet

import (
	"fmt"
	"time"

	"nomnomgo/internal/types"
)

type Wallet struct {
	CustomerID types.ID
	Balance    types.Money
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// InsufficientFundsError reports a rejected debit. The balance is left
// untouched when this is returned.
type InsufficientFundsError struct {
	CurrentBalance types.Money
	Required       types.Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s",
		e.CurrentBalance.Format(), e.Required.Format())
}
