// README: Payment initiation flow: debit the wallet, create the order, and
// hand it to the assignment orchestrator.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/wallet"
	"nomnomgo/internal/types"
)

type Wallet interface {
	Debit(ctx context.Context, customerID types.ID, amount types.Money, orderID types.ID) (types.Money, error)
}

type Orders interface {
	Create(ctx context.Context, o *order.Order) error
}

type Assigner interface {
	Assign(ctx context.Context, orderID types.ID) (types.ID, error)
	StartPending(orderID types.ID) bool
}

type Emails interface {
	Email(ctx context.Context, uid types.ID) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

type Service struct {
	wallet   Wallet
	orders   Orders
	assigner Assigner
	emails   Emails
	events   Publisher
	log      *slog.Logger
}

func NewService(w Wallet, orders Orders, assigner Assigner, emails Emails, events Publisher, log *slog.Logger) *Service {
	return &Service{
		wallet:   w,
		orders:   orders,
		assigner: assigner,
		emails:   emails,
		events:   events,
		log:      log,
	}
}

type PayCommand struct {
	CustomerID      types.ID
	OrderID         types.ID
	RestaurantID    string
	RestaurantName  string
	Items           []order.Item
	DeliveryAddress string
	Subtotal        types.Money
	DeliveryFee     types.Money
}

type PayResult struct {
	OrderID    types.ID
	DriverID   *types.ID
	Pending    bool
	NewBalance types.Money
}

// Pay debits the customer's wallet for the order total, creates the order
// record, and attempts driver assignment. When no driver is available the
// order stays PENDING/PENDING and the retry/expiry pair is started.
func (s *Service) Pay(ctx context.Context, cmd PayCommand) (*PayResult, error) {
	if cmd.CustomerID == "" || cmd.OrderID == "" {
		return nil, order.ErrBadRequest
	}
	total := cmd.Subtotal.Add(cmd.DeliveryFee)

	newBalance, err := s.wallet.Debit(ctx, cmd.CustomerID, total, cmd.OrderID)
	if err != nil {
		var funds *wallet.InsufficientFundsError
		if errors.As(err, &funds) {
			s.publishPaymentError(ctx, cmd, funds)
		}
		return nil, err
	}

	o := &order.Order{
		ID:              cmd.OrderID,
		CustomerID:      cmd.CustomerID,
		RestaurantID:    cmd.RestaurantID,
		RestaurantName:  cmd.RestaurantName,
		Items:           cmd.Items,
		DeliveryAddress: cmd.DeliveryAddress,
		Subtotal:        cmd.Subtotal,
		DeliveryFee:     cmd.DeliveryFee,
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPaid,
		DriverStatus:    order.DriverPending,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		// Wallet already debited; the cancellation/refund path is the
		// recovery route once the record exists, so this gap is surfaced.
		s.log.Error("order create failed after debit",
			"order_id", cmd.OrderID, "customer_id", cmd.CustomerID, "error", err)
		return nil, fmt.Errorf("create order %s after debit: %w", cmd.OrderID, err)
	}

	result := &PayResult{OrderID: cmd.OrderID, NewBalance: newBalance}

	driverID, err := s.assigner.Assign(ctx, cmd.OrderID)
	switch {
	case err == nil:
		result.DriverID = &driverID
	case errors.Is(err, assignment.ErrNoDriverAvailable):
		s.assigner.StartPending(cmd.OrderID)
		result.Pending = true
	default:
		// Assignment errored (not merely "no driver"). The order is paid
		// and pending; the retry loop doubles as the caller-level retry.
		s.log.Warn("initial assignment failed, falling back to retry loop",
			"order_id", cmd.OrderID, "error", err)
		s.assigner.StartPending(cmd.OrderID)
		result.Pending = true
	}
	return result, nil
}

// publishPaymentError emits the wallet.payment.error event. Best-effort.
func (s *Service) publishPaymentError(ctx context.Context, cmd PayCommand, funds *wallet.InsufficientFundsError) {
	recipient, err := s.emails.Email(ctx, cmd.CustomerID)
	if err != nil {
		s.log.Warn("payment error event: customer email lookup failed",
			"customer_id", cmd.CustomerID, "error", err)
	}

	evt := broker.PaymentErrorEvent{
		ErrorID:    string(types.NewID()),
		Recipient:  recipient,
		CustomerID: string(cmd.CustomerID),
		OrderID:    string(cmd.OrderID),
		Message:    "Insufficient balance",
		Required:   funds.Required.Format(),
		Balance:    funds.CurrentBalance.Format(),
	}
	if err := s.events.Publish(ctx, broker.KeyPaymentError, evt); err != nil {
		s.log.Warn("payment error event: publish failed",
			"order_id", cmd.OrderID, "error", err)
	}
}
