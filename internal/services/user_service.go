package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
)

// UserService registers and resolves users. Authentication lives outside
// this system; a user here is just an owner of balances, transactions and
// budgets.
type UserService struct {
	store Store
}

func NewUserService(store Store) *UserService {
	return &UserService{store: store}
}

// Register creates a user with a zero balance in the given base currency.
func (s *UserService) Register(ctx context.Context, username string, baseCurrency core.Currency) (core.User, error) {
	if username == "" {
		return core.User{}, fmt.Errorf("%w: username is required", core.ErrBadData)
	}
	u := core.User{
		ID:           uuid.New(),
		Username:     username,
		Balance:      decimal.Zero,
		BaseCurrency: baseCurrency,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", applog.FieldUserID, u.ID, "username", username)
	return u, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (core.User, error) {
	return s.store.UserByID(ctx, id)
}

// ByUsername returns one user by username.
func (s *UserService) ByUsername(ctx context.Context, username string) (core.User, error) {
	return s.store.UserByUsername(ctx, username)
}
