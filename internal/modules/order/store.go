// README: Order store backed by PostgreSQL. Guarded updates implement the
// check-then-act transitions the orchestrator and the cancellation
// coordinator race on.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nomnomgo/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (
			id, customer_id, restaurant_id, restaurant_name, items,
			delivery_address, subtotal, delivery_fee,
			status, payment_status, driver_id, driver_status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14
		)`,
		string(o.ID),
		string(o.CustomerID),
		o.RestaurantID,
		o.RestaurantName,
		items,
		o.DeliveryAddress,
		o.Subtotal.Amount,
		o.DeliveryFee.Amount,
		string(o.Status),
		string(o.PaymentStatus),
		toStringPtr(o.DriverID),
		string(o.DriverStatus),
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, customer_id, restaurant_id, restaurant_name, items,
		       delivery_address, subtotal, delivery_fee,
		       status, payment_status, driver_id, driver_status,
		       created_at, updated_at
		FROM orders
		WHERE id = $1`, string(id),
	)
	return scanOrder(row)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, customer_id, restaurant_id, restaurant_name, items,
		       delivery_address, subtotal, delivery_fee,
		       status, payment_status, driver_id, driver_status,
		       created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC`, string(customerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// StatusUpdate carries the subset of status fields a caller wants to change.
// Nil fields are left untouched. SetDriver distinguishes "clear driver_id"
// from "leave driver_id alone".
type StatusUpdate struct {
	Status        *Status
	PaymentStatus *PaymentStatus
	DriverStatus  *DriverStatus
	SetDriver     bool
	DriverID      *types.ID
}

func (u StatusUpdate) empty() bool {
	return u.Status == nil && u.PaymentStatus == nil && u.DriverStatus == nil && !u.SetDriver
}

// UpdateStatusFields applies a partial status update, refreshing updated_at.
// Last write wins; there is no version check on this path.
func (s *Store) UpdateStatusFields(ctx context.Context, id types.ID, upd StatusUpdate) (*Order, error) {
	if upd.empty() {
		return nil, ErrBadRequest
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = COALESCE($2, status),
		    payment_status = COALESCE($3, payment_status),
		    driver_status = COALESCE($4, driver_status),
		    driver_id = CASE WHEN $5 THEN $6 ELSE driver_id END,
		    updated_at = $7
		WHERE id = $1`,
		string(id),
		toStatusPtr(upd.Status),
		toPaymentPtr(upd.PaymentStatus),
		toDriverStatusPtr(upd.DriverStatus),
		upd.SetDriver,
		toStringPtr(upd.DriverID),
		Now(),
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// MarkAssigned reserves the order for a driver. The WHERE clause refuses
// terminal orders and orders whose delivery leg was already cancelled, so a
// cancellation that won the race makes this a no-op (false, nil).
func (s *Store) MarkAssigned(ctx context.Context, id types.ID, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, driver_id = $3, driver_status = $4, updated_at = $5
		WHERE id = $1
		  AND status NOT IN ('CANCELLED','DELIVERED','COMPLETED')
		  AND driver_status <> 'CANCELLED'`,
		string(id),
		string(StatusPreparing),
		string(driverID),
		string(DriverAssigned),
		Now(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCancelled flips the order to CANCELLED/REFUNDED/CANCELLED unless a
// terminal state got there first. Exactly one concurrent caller observes
// true, which is what keeps the refund single-shot.
func (s *Store) MarkCancelled(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, driver_status = $4, updated_at = $5
		WHERE id = $1
		  AND status NOT IN ('CANCELLED','DELIVERED','COMPLETED')`,
		string(id),
		string(StatusCancelled),
		string(PaymentRefunded),
		string(DriverCancelled),
		Now(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RevertForReassign clears an assignment after a driver rejection.
func (s *Store) RevertForReassign(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, driver_id = NULL, driver_status = $3, updated_at = $4
		WHERE id = $1
		  AND status NOT IN ('CANCELLED','DELIVERED','COMPLETED')`,
		string(id),
		string(StatusPreparing),
		string(DriverPending),
		Now(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var items []byte
	var driverID *string
	var subtotal, fee int64

	err := row.Scan(
		&o.ID, &o.CustomerID, &o.RestaurantID, &o.RestaurantName, &items,
		&o.DeliveryAddress, &subtotal, &fee,
		&o.Status, &o.PaymentStatus, &driverID, &o.DriverStatus,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Subtotal = types.NewMoney(subtotal)
	o.DeliveryFee = types.NewMoney(fee)
	if driverID != nil {
		d := types.ID(*driverID)
		o.DriverID = &d
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	o.CreatedAt = o.CreatedAt.In(AppZone)
	o.UpdatedAt = o.UpdatedAt.In(AppZone)
	return &o, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toStatusPtr(v *Status) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toPaymentPtr(v *PaymentStatus) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toDriverStatusPtr(v *DriverStatus) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
