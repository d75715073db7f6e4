// README: Driver assignment orchestrator. Finds the nearest available
// driver, reserves it against concurrent requests, updates the order, and
// when no driver exists runs a bounded pending/retry loop racing an
// auto-cancellation timer.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"nomnomgo/internal/broker"
	"nomnomgo/internal/config"
	"nomnomgo/internal/driver"
	"nomnomgo/internal/modules/order"
	"nomnomgo/internal/modules/refund"
	"nomnomgo/internal/types"
)

var (
	// ErrNoDriverAvailable is the Pending outcome: no candidate in the
	// ranked list was AVAILABLE. Callers start the retry path.
	ErrNoDriverAvailable = errors.New("no available drivers")
	// ErrInvalidOrder marks an order missing its restaurant linkage.
	ErrInvalidOrder = errors.New("order has no restaurant")
	// ErrOrderNotAssignable reports that the order left the assignable
	// state (for example a cancellation won the race).
	ErrOrderNotAssignable = errors.New("order is no longer assignable")
)

type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
	MarkAssigned(ctx context.Context, id types.ID, driverID types.ID) (bool, error)
	RevertForReassign(ctx context.Context, id types.ID) (bool, error)
}

type Directory interface {
	Nearby(ctx context.Context, restaurantID string) ([]driver.Driver, error)
	Get(ctx context.Context, id int64) (*driver.Driver, error)
	UpdateStatus(ctx context.Context, d driver.Driver, status driver.Status) error
}

type Cooldowns interface {
	Set(ctx context.Context, driverID int64, ttl time.Duration) error
	Active(ctx context.Context, driverID int64) (bool, error)
}

type Emails interface {
	Email(ctx context.Context, uid types.ID) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// Canceller is the auto-cancellation side of the race, wired to the refund
// coordinator.
type Canceller interface {
	CancelOrder(ctx context.Context, orderID types.ID) (*refund.Result, error)
}

type Service struct {
	orders    Orders
	directory Directory
	cooldowns Cooldowns
	emails    Emails
	events    Publisher
	canceller Canceller
	registry  *Registry
	cfg       config.AssignmentConfig
	log       *slog.Logger
}

func NewService(
	orders Orders,
	directory Directory,
	cooldowns Cooldowns,
	emails Emails,
	events Publisher,
	canceller Canceller,
	registry *Registry,
	cfg config.AssignmentConfig,
	log *slog.Logger,
) *Service {
	return &Service{
		orders:    orders,
		directory: directory,
		cooldowns: cooldowns,
		emails:    emails,
		events:    events,
		canceller: canceller,
		registry:  registry,
		cfg:       cfg,
		log:       log,
	}
}

// Assign attempts to reserve the nearest available driver for the order.
// Returns the assigned driver ID, ErrNoDriverAvailable when every candidate
// is busy or cooling down, or an error when a collaborator call failed.
func (s *Service) Assign(ctx context.Context, orderID types.ID) (types.ID, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.RestaurantID == "" {
		return "", ErrInvalidOrder
	}
	if o.Status.Terminal() || o.DriverStatus == order.DriverCancelled {
		return "", ErrOrderNotAssignable
	}

	candidates, err := s.directory.Nearby(ctx, o.RestaurantID)
	if err != nil {
		return "", fmt.Errorf("query driver directory: %w", err)
	}

	chosen, found := s.pickDriver(ctx, candidates)
	if !found {
		return "", ErrNoDriverAvailable
	}

	// Reserve: conditional BUSY write carrying the full profile. A failed
	// reservation is not retried on the same driver; the next poll
	// iteration re-ranks from scratch.
	if err := s.directory.UpdateStatus(ctx, chosen, driver.StatusBusy); err != nil {
		return "", fmt.Errorf("reserve driver %d: %w", chosen.ID, err)
	}

	driverID := types.ID(strconv.FormatInt(chosen.ID, 10))
	ok, err := s.orders.MarkAssigned(ctx, orderID, driverID)
	if err != nil {
		// The driver is already BUSY and the order does not reflect it.
		// Accepted inconsistency window; reconciliation is out of scope.
		s.log.Error("order update failed after driver reserved",
			"order_id", orderID, "driver_id", chosen.ID, "error", err)
		return "", fmt.Errorf("update order %s after reserving driver: %w", orderID, err)
	}
	if !ok {
		// A cancellation (or another writer) won the race. Free the
		// driver so it is not stranded BUSY.
		if uerr := s.directory.UpdateStatus(ctx, chosen, driver.StatusAvailable); uerr != nil {
			s.log.Error("failed to release driver after losing assignment race",
				"order_id", orderID, "driver_id", chosen.ID, "error", uerr)
		}
		return "", ErrOrderNotAssignable
	}

	// Notify before stopping the pending task: when this call came from the
	// poll loop itself, Stop cancels the context the notification would use.
	s.notifyAssigned(ctx, o, chosen, driverID)
	s.registry.Stop(orderID)
	return driverID, nil
}

// pickDriver scans the distance-ranked candidates for the first AVAILABLE
// driver that is not cooling down after a rejection.
func (s *Service) pickDriver(ctx context.Context, candidates []driver.Driver) (driver.Driver, bool) {
	for _, c := range candidates {
		if !c.Available() {
			continue
		}
		cooling, err := s.cooldowns.Active(ctx, c.ID)
		if err != nil {
			s.log.Warn("cooldown lookup failed, treating driver as eligible",
				"driver_id", c.ID, "error", err)
		}
		if cooling {
			continue
		}
		return c, true
	}
	return driver.Driver{}, false
}

// StartPending launches the retry/expiry pair for an order the orchestrator
// could not assign. Idempotent: a second call while one is active is a no-op.
func (s *Service) StartPending(orderID types.ID) bool {
	ctx, ok := s.registry.Start(orderID)
	if !ok {
		return false
	}
	go s.runPending(ctx, orderID)
	return true
}

// StopPending cancels the retry/expiry pair, if any.
func (s *Service) StopPending(orderID types.ID) bool {
	return s.registry.Stop(orderID)
}

// runPending polls for a driver every PollInterval and cancels the order if
// CancelAfter elapses first. Whichever side fires re-checks current order
// state immediately before acting, so the loser observes the result and
// becomes a no-op.
func (s *Service) runPending(ctx context.Context, orderID types.ID) {
	log := s.log.With("order_id", orderID)
	log.Info("pending assignment: retry loop started",
		"poll", s.cfg.PollInterval, "cancel_after", s.cfg.CancelAfter)

	timer := time.NewTimer(s.cfg.CancelAfter)
	defer timer.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.pollOnce(ctx, orderID, log) {
				s.registry.Stop(orderID)
				return
			}
		case <-timer.C:
			// The task is finishing either way; drop the registry entry
			// first and run the expiry on a detached context so its own
			// cancellation cannot cut the refund short.
			s.registry.Stop(orderID)
			expireCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
			s.expire(expireCtx, orderID, log)
			cancel()
			return
		}
	}
}

// pollOnce runs one retry iteration. Reports true when the loop should stop:
// either a driver was assigned or the order left the pending-eligible state.
// Transient faults are logged and the loop continues.
func (s *Service) pollOnce(ctx context.Context, orderID types.ID, log *slog.Logger) bool {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		log.Warn("pending assignment: order fetch failed", "error", err)
		return false
	}
	if !o.PendingAssignment() {
		log.Info("pending assignment: order resolved elsewhere",
			"status", o.Status, "driver_status", o.DriverStatus)
		return true
	}

	_, err = s.Assign(ctx, orderID)
	switch {
	case err == nil:
		log.Info("pending assignment: driver found")
		return true
	case errors.Is(err, ErrNoDriverAvailable):
		return false
	case errors.Is(err, ErrOrderNotAssignable):
		return true
	default:
		log.Warn("pending assignment: attempt failed", "error", err)
		return false
	}
}

// expire fires the auto-cancellation. The order is re-read and cancelled
// only if it is still waiting for a driver.
func (s *Service) expire(ctx context.Context, orderID types.ID, log *slog.Logger) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		log.Error("auto-cancel: order fetch failed", "error", err)
		return
	}
	if !o.PendingAssignment() {
		log.Info("auto-cancel: order resolved before expiry, skipping",
			"status", o.Status, "driver_status", o.DriverStatus)
		return
	}
	if _, err := s.canceller.CancelOrder(ctx, orderID); err != nil {
		log.Error("auto-cancel: cancellation failed", "error", err)
		return
	}
	log.Info("auto-cancel: order cancelled after assignment window expired")
}

// RejectResult reports how a rejected delivery was re-dispatched.
type RejectResult struct {
	NewDriverID *types.ID
	Pending     bool
}

// Reject returns an assigned driver to the pool with a cool-down and
// immediately re-runs assignment for the order.
func (s *Service) Reject(ctx context.Context, orderID types.ID, driverID int64) (*RejectResult, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	d, err := s.directory.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}

	ok, err := s.orders.RevertForReassign(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("revert order %s: %w", orderID, err)
	}
	if !ok {
		return nil, ErrOrderNotAssignable
	}

	// Keep the rejecting driver out of the pool: BUSY in the directory
	// plus a local cool-down marker in case the directory lags.
	if err := s.directory.UpdateStatus(ctx, *d, driver.StatusBusy); err != nil {
		return nil, fmt.Errorf("set rejecting driver busy: %w", err)
	}
	if err := s.cooldowns.Set(ctx, driverID, s.cfg.Cooldown); err != nil {
		s.log.Warn("cooldown marker write failed", "driver_id", driverID, "error", err)
	}
	s.scheduleCooldownRelease(*d)

	newDriver, err := s.Assign(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNoDriverAvailable) {
			s.StartPending(orderID)
			return &RejectResult{Pending: true}, nil
		}
		return nil, err
	}
	return &RejectResult{NewDriverID: &newDriver}, nil
}

// scheduleCooldownRelease restores the driver to AVAILABLE once the
// cool-down lapses, so a rejection never strands a driver BUSY.
func (s *Service) scheduleCooldownRelease(d driver.Driver) {
	go func() {
		timer := time.NewTimer(s.cfg.Cooldown)
		defer timer.Stop()
		<-timer.C

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.directory.UpdateStatus(ctx, d, driver.StatusAvailable); err != nil {
			s.log.Error("cooldown release failed, driver may be stuck BUSY",
				"driver_id", d.ID, "error", err)
			return
		}
		s.log.Info("cooldown lapsed, driver available again", "driver_id", d.ID)
	}()
}

// notifyAssigned publishes the driver-assigned event. Best-effort; a failure
// never rolls back the reservation.
func (s *Service) notifyAssigned(ctx context.Context, o *order.Order, d driver.Driver, driverID types.ID) {
	recipient, err := s.emails.Email(ctx, o.CustomerID)
	if err != nil {
		s.log.Warn("assign notification: customer email lookup failed",
			"order_id", o.ID, "customer_id", o.CustomerID, "error", err)
	}

	evt := broker.DriverAssignedEvent{
		Recipient:   recipient,
		OrderID:     string(o.ID),
		DriverID:    string(driverID),
		DriverName:  d.Name,
		DriverPhone: strconv.FormatInt(d.Number, 10),
		Restaurant:  o.RestaurantName,
		Subtotal:    o.Subtotal.Format(),
		DeliveryFee: o.DeliveryFee.Format(),
		Total:       o.Total().Format(),
		Items:       eventItems(o.Items),
	}
	if err := s.events.Publish(ctx, broker.KeyDriverAssigned, evt); err != nil {
		s.log.Warn("assign notification: publish failed", "order_id", o.ID, "error", err)
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
