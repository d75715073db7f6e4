// README: Customer record.
package customer

import (
	"time"

	"nomnomgo/internal/types"
)

type Customer struct {
	UID       types.ID
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
