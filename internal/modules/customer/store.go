// README: Customer store backed by PostgreSQL.
package customer

import (
	"context"
	"errors"

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

func (s *Store) Create(ctx context.Context, c *Customer) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (uid, name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(c.UID), c.Name, c.Email, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, uid types.ID) (*Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT uid, name, email, phone, address, created_at, updated_at
		FROM users
		WHERE uid = $1`, string(uid),
	)
	var c Customer
	err := row.Scan(&c.UID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	row := s.db.QueryRow(ctx, `
		SELECT uid, name, email, phone, address, created_at, updated_at
		FROM users
		WHERE email = $1`, email,
	)
	var c Customer
	err := row.Scan(&c.UID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) List(ctx context.Context) ([]*Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT uid, name, email, phone, address, created_at, updated_at
		FROM users
		ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.UID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, c *Customer) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, phone = $4, address = $5, updated_at = $6
		WHERE uid = $1`,
		string(c.UID), c.Name, c.Email, c.Phone, c.Address, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, uid types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE uid = $1`, string(uid))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
