// README: Event payloads published to the order_topic exchange. Monetary
// fields are preformatted to two decimal places.
package broker

// Routing keys on the order_topic exchange.
const (
	Exchange = "order_topic"

	KeyDriverAssigned = "driver.assigned.notification"
	KeyOrderCancelled = "order.cancel.notification"
	KeyPaymentError   = "wallet.payment.error"
)

type ItemLine struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type DriverAssignedEvent struct {
	Recipient   string     `json:"recipient"`
	OrderID     string     `json:"orderId"`
	DriverID    string     `json:"driverId"`
	DriverName  string     `json:"driverName"`
	DriverPhone string     `json:"driverPhone"`
	Restaurant  string     `json:"restaurant"`
	Subtotal    string     `json:"subtotal"`
	DeliveryFee string     `json:"deliveryFee"`
	Total       string     `json:"total"`
	Items       []ItemLine `json:"items"`
}

type OrderCancelledEvent struct {
	Recipient   string     `json:"recipient"`
	OrderID     string     `json:"orderId"`
	Subtotal    string     `json:"subtotal"`
	DeliveryFee string     `json:"deliveryFee"`
	Total       string     `json:"total"`
	NewBalance  string     `json:"newBalance"`
	Items       []ItemLine `json:"items"`
}

type PaymentErrorEvent struct {
	ErrorID    string `json:"errorId"`
	Recipient  string `json:"recipient"`
	CustomerID string `json:"custId"`
	OrderID    string `json:"orderId"`
	Message    string `json:"message"`
	Required   string `json:"required"`
	Balance    string `json:"currentBalance"`
}
