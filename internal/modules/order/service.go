// README: Order service validates records and enforces the terminal-state
// freeze on top of the store's guarded updates.
package order

import (
	"context"
	"errors"

	"nomnomgo/internal/types"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidState = errors.New("order is in a terminal state")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Create persists a new order. Order IDs are caller-supplied.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if o.ID == "" || o.CustomerID == "" {
		return ErrBadRequest
	}
	if len(o.Items) == 0 || o.DeliveryAddress == "" {
		return ErrBadRequest
	}
	now := Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = PaymentPending
	}
	if o.DriverStatus == "" {
		o.DriverStatus = DriverPending
	}
	if o.DriverID != nil && o.DriverStatus != DriverAssigned {
		return ErrBadRequest
	}
	return s.store.Create(ctx, o)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// UpdateStatus applies a partial status update. Terminal orders accept only
// the DELIVERED -> COMPLETED hop; everything else is frozen.
func (s *Service) UpdateStatus(ctx context.Context, id types.ID, upd StatusUpdate) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		completing := o.Status == StatusDelivered &&
			upd.Status != nil && *upd.Status == StatusCompleted &&
			upd.DriverStatus == nil && !upd.SetDriver
		if !completing {
			return nil, ErrInvalidState
		}
	}
	if upd.SetDriver && upd.DriverID != nil {
		// driver_id may only be set alongside ASSIGNED.
		if upd.DriverStatus == nil || *upd.DriverStatus != DriverAssigned {
			return nil, ErrBadRequest
		}
	}
	return s.store.UpdateStatusFields(ctx, id, upd)
}

func (s *Service) MarkAssigned(ctx context.Context, id types.ID, driverID types.ID) (bool, error) {
	return s.store.MarkAssigned(ctx, id, driverID)
}

func (s *Service) MarkCancelled(ctx context.Context, id types.ID) (bool, error) {
	return s.store.MarkCancelled(ctx, id)
}

func (s *Service) RevertForReassign(ctx context.Context, id types.ID) (bool, error) {
	return s.store.RevertForReassign(ctx, id)
}
