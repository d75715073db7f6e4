// README: Payment flow unit tests: debit, order creation, assignment handoff.
package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/modules/assignment"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/wallet"
	"nomnomgo/internal/types"
)

type memWallet struct {
	mu      sync.Mutex
	balance int64
}

func (m *memWallet) Debit(_ context.Context, _ types.ID, amount types.Money, _ types.ID) (types.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance < amount.Amount {
		return types.Money{}, &wallet.InsufficientFundsError{
			CurrentBalance: types.NewMoney(m.balance),
			Required:       amount,
		}
	}
	m.balance -= amount.Amount
	return types.NewMoney(m.balance), nil
}

type memOrders struct {
	mu      sync.Mutex
	created []*order.Order
	err     error
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

type memAssigner struct {
	mu       sync.Mutex
	driverID types.ID
	err      error
	pending  []types.ID
}

func (m *memAssigner) Assign(_ context.Context, _ types.ID) (types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return m.driverID, nil
}

func (m *memAssigner) StartPending(orderID types.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, orderID)
	return true
}

type memEmails struct{}

func (memEmails) Email(_ context.Context, _ types.ID) (string, error) {
	return "customer@example.com", nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []published
}

type published struct {
	key  string
	body any
}

func (m *memPublisher) Publish(_ context.Context, routingKey string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{key: routingKey, body: v})
	return nil
}

func payCmd() PayCommand {
	return PayCommand{
		CustomerID:      "cust-1",
		OrderID:         "order-1",
		RestaurantID:    "rest-1",
		RestaurantName:  "Hawker 88",
		Items:           []order.Item{{ID: "i1", Name: "Chicken Rice", UnitPrice: types.NewMoney(450), Quantity: 2}},
		DeliveryAddress: "42 Marina Way",
		Subtotal:        types.NewMoney(900),
		DeliveryFee:     types.NewMoney(300),
	}
}

func newTestService(w *memWallet, orders *memOrders, a *memAssigner) (*Service, *memPublisher) {
	events := &memPublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(w, orders, a, memEmails{}, events, log), events
}

func TestPay_DebitsAndAssigns(t *testing.T) {
	w := &memWallet{balance: 2000}
	orders := &memOrders{}
	a := &memAssigner{driverID: "7"}
	svc, events := newTestService(w, orders, a)

	res, err := svc.Pay(context.Background(), payCmd())
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.DriverID == nil || *res.DriverID != "7" {
		t.Fatalf("expected driver 7, got %v", res.DriverID)
	}
	if res.Pending {
		t.Fatal("assigned payment must not be pending")
	}
	if res.NewBalance.Amount != 800 {
		t.Fatalf("expected balance 800 after 1200 debit, got %d", res.NewBalance.Amount)
	}

	if len(orders.created) != 1 {
		t.Fatalf("expected one order created, got %d", len(orders.created))
	}
	o := orders.created[0]
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPaid || o.DriverStatus != order.DriverPending {
		t.Fatalf("unexpected initial order state %s/%s/%s", o.Status, o.PaymentStatus, o.DriverStatus)
	}
	if len(events.events) != 0 {
		t.Fatal("no error event expected on success")
	}
}

func TestPay_InsufficientFunds(t *testing.T) {
	w := &memWallet{balance: 100}
	orders := &memOrders{}
	a := &memAssigner{}
	svc, events := newTestService(w, orders, a)

	_, err := svc.Pay(context.Background(), payCmd())
	var funds *wallet.InsufficientFundsError
	if !errors.As(err, &funds) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if w.balance != 100 {
		t.Fatalf("balance changed on refused payment: %d", w.balance)
	}
	if len(orders.created) != 0 {
		t.Fatal("no order may be created on refused payment")
	}

	if len(events.events) != 1 || events.events[0].key != broker.KeyPaymentError {
		t.Fatalf("expected one payment error event, got %+v", events.events)
	}
	evt, ok := events.events[0].body.(broker.PaymentErrorEvent)
	if !ok {
		t.Fatalf("unexpected event body type %T", events.events[0].body)
	}
	if evt.Required != "12.00" || evt.Balance != "1.00" {
		t.Fatalf("unexpected event amounts: required %s, balance %s", evt.Required, evt.Balance)
	}
}

func TestPay_NoDriverStartsPendingLoop(t *testing.T) {
	w := &memWallet{balance: 2000}
	orders := &memOrders{}
	a := &memAssigner{err: assignment.ErrNoDriverAvailable}
	svc, _ := newTestService(w, orders, a)

	res, err := svc.Pay(context.Background(), payCmd())
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !res.Pending || res.DriverID != nil {
		t.Fatalf("expected pending result, got %+v", res)
	}
	if len(a.pending) != 1 || a.pending[0] != "order-1" {
		t.Fatalf("expected pending loop started for order-1, got %v", a.pending)
	}
}

func TestPay_AssignmentErrorFallsBackToPending(t *testing.T) {
	w := &memWallet{balance: 2000}
	orders := &memOrders{}
	a := &memAssigner{err: errors.New("directory unreachable")}
	svc, _ := newTestService(w, orders, a)

	res, err := svc.Pay(context.Background(), payCmd())
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !res.Pending {
		t.Fatal("expected fallback to pending on assignment error")
	}
	if len(a.pending) != 1 {
		t.Fatal("expected pending loop started")
	}
}

func TestPay_CreateFailureSurfaces(t *testing.T) {
	w := &memWallet{balance: 2000}
	orders := &memOrders{err: errors.New("db down")}
	a := &memAssigner{}
	svc, _ := newTestService(w, orders, a)

	if _, err := svc.Pay(context.Background(), payCmd()); err == nil {
		t.Fatal("expected order create failure to surface")
	}
}

func TestPay_MissingIDsRejected(t *testing.T) {
	svc, _ := newTestService(&memWallet{balance: 2000}, &memOrders{}, &memAssigner{})

	cmd := payCmd()
	cmd.CustomerID = ""
	if _, err := svc.Pay(context.Background(), cmd); !errors.Is(err, order.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	cmd = payCmd()
	cmd.OrderID = ""
	if _, err := svc.Pay(context.Background(), cmd); !errors.Is(err, order.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}
