// README: Wallet store backed by PostgreSQL. Debit and credit are single
// guarded statements so concurrent calls on the same customer serialize at
// the row and the balance can never go below zero.
package wallet

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

// Get returns the wallet, creating an empty one on first sight.
func (s *Store) Get(ctx context.Context, customerID types.ID) (*Wallet, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO wallets (customer_id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (customer_id) DO NOTHING`,
		string(customerID),
	)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT customer_id, balance, created_at, updated_at
		FROM wallets
		WHERE customer_id = $1`, string(customerID),
	)
	var w Wallet
	var balance int64
	err = row.Scan(&w.CustomerID, &balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Balance = types.NewMoney(balance)
	return &w, nil
}

// Debit withdraws amount if and only if the balance covers it. The row-level
// guard makes the read-check-write atomic against concurrent debits and
// credits on the same customer.
func (s *Store) Debit(ctx context.Context, customerID types.ID, amount types.Money) (types.Money, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance - $2, updated_at = NOW()
		WHERE customer_id = $1 AND balance >= $2
		RETURNING balance`,
		string(customerID), amount.Amount,
	)
	var balance int64
	err := row.Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		w, gerr := s.Get(ctx, customerID)
		if gerr != nil {
			return types.Money{}, gerr
		}
		return types.Money{}, &InsufficientFundsError{
			CurrentBalance: w.Balance,
			Required:       amount,
		}
	}
	if err != nil {
		return types.Money{}, err
	}
	return types.NewMoney(balance), nil
}

// Credit adds amount, creating the wallet if needed.
func (s *Store) Credit(ctx context.Context, customerID types.ID, amount types.Money) (types.Money, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO wallets (customer_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (customer_id)
		DO UPDATE SET balance = wallets.balance + $2, updated_at = NOW()
		RETURNING balance`,
		string(customerID), amount.Amount,
	)
	var balance int64
	if err := row.Scan(&balance); err != nil {
		return types.Money{}, err
	}
	return types.NewMoney(balance), nil
}

// SetBalance overwrites the balance. Negative balances are rejected by the
// service before reaching here and by the table constraint after.
func (s *Store) SetBalance(ctx context.Context, customerID types.ID, balance types.Money) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO wallets (customer_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (customer_id)
		DO UPDATE SET balance = $2, updated_at = NOW()`,
		string(customerID), balance.Amount,
	)
	return err
}
