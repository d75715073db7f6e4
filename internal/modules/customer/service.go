// README: Customer service; CRUD plus the email lookup the notification
// paths depend on.
package customer

import (
	"context"
	"errors"
	"time"

	"nomnomgo/internal/types"
)

var (
	ErrNotFound   = errors.New("customer not found")
	ErrBadRequest = errors.New("bad request")
	ErrDuplicate  = errors.New("customer with this email already exists")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, c *Customer) error {
	if c.Name == "" || c.Email == "" || c.Phone == "" || c.Address == "" {
		return ErrBadRequest
	}
	if _, err := s.store.GetByEmail(ctx, c.Email); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if c.UID == "" {
		c.UID = types.NewID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.store.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, uid types.ID) (*Customer, error) {
	return s.store.Get(ctx, uid)
}

func (s *Service) List(ctx context.Context) ([]*Customer, error) {
	return s.store.List(ctx)
}

func (s *Service) Update(ctx context.Context, c *Customer) error {
	if c.UID == "" {
		return ErrBadRequest
	}
	c.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, uid types.ID) error {
	return s.store.Delete(ctx, uid)
}

// Email returns the customer's email address, used as the notification
// recipient. Missing customers surface ErrNotFound.
func (s *Service) Email(ctx context.Context, uid types.ID) (string, error) {
	c, err := s.store.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return c.Email, nil
}
