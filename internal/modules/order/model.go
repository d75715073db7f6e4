// README: Order aggregate and status definitions.
package order

import (
	"time"

	"nomnomgo/internal/types"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusPreparing     Status = "PREPARING"
	StatusPaid          Status = "PAID"
	StatusPaymentFailed Status = "PAYMENT_FAILED"
	StatusCancelled     Status = "CANCELLED"
	StatusDelivered     Status = "DELIVERED"
	StatusCompleted     Status = "COMPLETED"
	StatusFailed        Status = "FAILED"
)

// Terminal reports whether no further assignment or cancellation may mutate
// the order.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered || s == StatusCompleted
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentUnpaid   PaymentStatus = "UNPAID"
)

// DriverStatus tracks the delivery leg, distinct from the order Status
// (an order can be status=PENDING while a driver search is under way).
type DriverStatus string

const (
	DriverPending   DriverStatus = "PENDING"
	DriverAssigned  DriverStatus = "ASSIGNED"
	DriverCancelled DriverStatus = "CANCELLED"
)

type Item struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	UnitPrice types.Money `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	ImageRef  string      `json:"imageRef,omitempty"`
}

type Order struct {
	ID              types.ID
	CustomerID      types.ID
	RestaurantID    string
	RestaurantName  string
	Items           []Item
	DeliveryAddress string
	Subtotal        types.Money
	DeliveryFee     types.Money
	Status          Status
	PaymentStatus   PaymentStatus
	DriverID        *types.ID
	DriverStatus    DriverStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Total is the amount debited at payment and refunded on cancellation.
func (o *Order) Total() types.Money {
	return o.Subtotal.Add(o.DeliveryFee)
}

// PendingAssignment reports whether the order is still eligible for the
// background driver-search loop. Eligibility ends when the order reaches a
// terminal status or its delivery leg stops waiting for a driver; the
// status itself may be PENDING or PREPARING, since a rejected delivery is
// reverted to PREPARING while it waits for a replacement.
func (o *Order) PendingAssignment() bool {
	return !o.Status.Terminal() && o.DriverStatus == DriverPending
}

// AppZone is the fixed UTC+8 offset all order timestamps are recorded in.
var AppZone = time.FixedZone("UTC+8", 8*60*60)

func Now() time.Time {
	return time.Now().In(AppZone)
}
