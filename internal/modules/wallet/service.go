// README: Wallet ledger service. The one correctness-critical contract here
// is debit atomicity: the balance never goes below zero even under
// concurrent debit attempts for the same customer.
package wallet

import (
	"context"
	"errors"

	"nomnomgo/internal/types"
)

var (
	ErrNotFound   = errors.New("wallet not found")
	ErrBadRequest = errors.New("bad request")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetBalance(ctx context.Context, customerID types.ID) (types.Money, error) {
	if customerID == "" {
		return types.Money{}, ErrBadRequest
	}
	w, err := s.store.Get(ctx, customerID)
	if err != nil {
		return types.Money{}, err
	}
	return w.Balance, nil
}

// Debit withdraws amount for an order. Returns the new balance, or an
// *InsufficientFundsError carrying the current balance and the required
// amount when the wallet cannot cover it.
func (s *Service) Debit(ctx context.Context, customerID types.ID, amount types.Money, orderID types.ID) (types.Money, error) {
	if customerID == "" || orderID == "" || amount.Amount <= 0 {
		return types.Money{}, ErrBadRequest
	}
	return s.store.Debit(ctx, customerID, amount)
}

// Credit adds amount to the wallet and returns the new balance.
func (s *Service) Credit(ctx context.Context, customerID types.ID, amount types.Money) (types.Money, error) {
	if customerID == "" || amount.Amount <= 0 {
		return types.Money{}, ErrBadRequest
	}
	return s.store.Credit(ctx, customerID, amount)
}

// SetBalance overwrites the balance, used by the admin top-up endpoint.
func (s *Service) SetBalance(ctx context.Context, customerID types.ID, balance types.Money) error {
	if customerID == "" || balance.Amount < 0 {
		return ErrBadRequest
	}
	return s.store.SetBalance(ctx, customerID, balance)
}
