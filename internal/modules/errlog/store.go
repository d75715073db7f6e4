// README: Persistence for error events consumed off the error_queue.
package errlog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nomnomgo/internal/types"
)

type Event struct {
	ErrorID    types.ID
	CustomerID string
	OrderID    string
	Message    string
	RoutingKey string
	ReceivedAt time.Time
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO error_events (error_id, customer_id, order_id, message, routing_key, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.ErrorID), e.CustomerID, e.OrderID, e.Message, e.RoutingKey, e.ReceivedAt,
	)
	return err
}

func (s *Store) Recent(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT error_id, customer_id, order_id, message, routing_key, received_at
		FROM error_events
		ORDER BY received_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ErrorID, &e.CustomerID, &e.OrderID, &e.Message, &e.RoutingKey, &e.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
