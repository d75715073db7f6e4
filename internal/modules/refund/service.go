// README: Order cancellation and refund coordinator. Races against the
// assignment orchestrator's success path; the guarded MarkCancelled update
// decides the winner, and only the winner credits the wallet, so a double
// cancel can never double-refund.
package refund

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/driver"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/types"
)

type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	MarkCancelled(ctx context.Context, id types.ID) (bool, error)
}

type Wallet interface {
	Credit(ctx context.Context, customerID types.ID, amount types.Money) (types.Money, error)
}

type Emails interface {
	Email(ctx context.Context, uid types.ID) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// Stopper cancels a pending-assignment task so the poll loop stops once the
// order is cancelled.
type Stopper interface {
	Stop(id types.ID) bool
}

// Directory returns an assigned driver to the pool when its order is
// cancelled mid-delivery.
type Directory interface {
	Get(ctx context.Context, id int64) (*driver.Driver, error)
	UpdateStatus(ctx context.Context, d driver.Driver, status driver.Status) error
}

type Result struct {
	Order            *order.Order
	Refunded         types.Money
	NewBalance       types.Money
	AlreadyCancelled bool
}

type Service struct {
	orders    Orders
	wallet    Wallet
	emails    Emails
	events    Publisher
	stopper   Stopper
	directory Directory
	log       *slog.Logger
}

func NewService(orders Orders, wallet Wallet, emails Emails, events Publisher, stopper Stopper, directory Directory, log *slog.Logger) *Service {
	return &Service{
		orders:    orders,
		wallet:    wallet,
		emails:    emails,
		events:    events,
		stopper:   stopper,
		directory: directory,
		log:       log,
	}
}

// CancelOrder cancels a pending order and refunds the amount originally
// debited. Calling it on an already-cancelled order is a no-op success; the
// wallet is credited at most once per order.
func (s *Service) CancelOrder(ctx context.Context, orderID types.ID) (*Result, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCancelled {
		return &Result{Order: o, AlreadyCancelled: true}, nil
	}
	if o.Status.Terminal() {
		return nil, order.ErrInvalidState
	}

	ok, err := s.orders.MarkCancelled(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	if !ok {
		// Lost the race. If a concurrent cancel won, report the no-op;
		// anything else (delivered, completed) refuses the cancel.
		cur, gerr := s.orders.Get(ctx, orderID)
		if gerr == nil && cur.Status == order.StatusCancelled {
			return &Result{Order: cur, AlreadyCancelled: true}, nil
		}
		return nil, order.ErrInvalidState
	}

	s.stopper.Stop(orderID)

	// A mid-delivery cancel leaves the driver BUSY in the directory with
	// nobody to deliver to. Best-effort release; the refund proceeds either
	// way.
	if o.DriverID != nil && o.DriverStatus == order.DriverAssigned {
		s.releaseDriver(ctx, orderID, *o.DriverID)
	}

	amount := o.Total()
	newBalance, err := s.wallet.Credit(ctx, o.CustomerID, amount)
	if err != nil {
		// Order is already CANCELLED/REFUNDED but the wallet was not
		// credited. Surfaced so the caller can retry the refund.
		s.log.Error("refund credit failed after cancel",
			"order_id", orderID, "customer_id", o.CustomerID, "error", err)
		return nil, fmt.Errorf("refund wallet for order %s: %w", orderID, err)
	}

	s.notifyCancelled(ctx, o, newBalance)

	cancelled, err := s.orders.Get(ctx, orderID)
	if err != nil {
		cancelled = o
	}
	return &Result{
		Order:      cancelled,
		Refunded:   amount,
		NewBalance: newBalance,
	}, nil
}

// releaseDriver restores a cancelled order's driver to AVAILABLE. The
// directory wants the full profile on a status write, so the driver is read
// back first. Failures are logged, never surfaced.
func (s *Service) releaseDriver(ctx context.Context, orderID, driverID types.ID) {
	id, err := strconv.ParseInt(string(driverID), 10, 64)
	if err != nil {
		s.log.Warn("driver release: malformed driver id on order",
			"order_id", orderID, "driver_id", driverID, "error", err)
		return
	}
	d, err := s.directory.Get(ctx, id)
	if err != nil {
		s.log.Warn("driver release: directory lookup failed",
			"order_id", orderID, "driver_id", id, "error", err)
		return
	}
	if err := s.directory.UpdateStatus(ctx, *d, driver.StatusAvailable); err != nil {
		s.log.Warn("driver release failed, driver may be stuck BUSY",
			"order_id", orderID, "driver_id", id, "error", err)
	}
}

// notifyCancelled publishes the cancellation event. Best-effort: failures
// are logged, never surfaced to the caller.
func (s *Service) notifyCancelled(ctx context.Context, o *order.Order, newBalance types.Money) {
	recipient, err := s.emails.Email(ctx, o.CustomerID)
	if err != nil {
		s.log.Warn("cancel notification: customer email lookup failed",
			"order_id", o.ID, "customer_id", o.CustomerID, "error", err)
	}

	evt := broker.OrderCancelledEvent{
		Recipient:   recipient,
		OrderID:     string(o.ID),
		Subtotal:    o.Subtotal.Format(),
		DeliveryFee: o.DeliveryFee.Format(),
		Total:       o.Total().Format(),
		NewBalance:  newBalance.Format(),
		Items:       eventItems(o.Items),
	}
	if err := s.events.Publish(ctx, broker.KeyOrderCancelled, evt); err != nil {
		s.log.Warn("cancel notification: publish failed", "order_id", o.ID, "error", err)
	}
}

func eventItems(items []order.Item) []broker.ItemLine {
	out := make([]broker.ItemLine, len(items))
	for i, it := range items {
		out[i] = broker.ItemLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Format(),
		}
	}
	return out
}
