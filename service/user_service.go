package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmailAlreadyExists  = errors.New("email already in use")
)

// UserService owns user records and their balances. It is the only
// component permitted to mutate a balance.
type UserService struct {
	db       *sql.DB
	userRepo repository.IUserRepository
	cache    ICacheClient
}

func NewUserService(db *sql.DB, userRepo repository.IUserRepository, cache ICacheClient) *UserService {
	return &UserService{
		db:       db,
		userRepo: userRepo,
		cache:    cache,
	}
}

// CreateUser registers a new user with a fresh id. The initial balance
// defaults to zero when the request omits it.
func (s *UserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	log := logger.Log.WithField("email", req.Email)
	log.Info("Creating a new user")

	user := &model.User{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Email:   req.Email,
		Balance: req.Balance,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}
	return user, nil
}

// GetUserByID looks up a single user, utilizing a cache-aside strategy.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userCacheKey(id)).Result()
		if err == nil {
			var user model.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			s.cache.Set(ctx, userCacheKey(id), data, userCacheTTL)
		}
	}

	return user, nil
}

// ListUsers retrieves all users. No caching here: the list is admin-facing
// and balances need to be fresh.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.GetAllUsers()
}

// UpdateUser applies a partial update of name and/or email.
func (s *UserService) UpdateUser(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not update user: %w", err)
	}

	s.invalidate(ctx, id)
	return user, nil
}

// DeleteUser removes a user record. Peripheral CRUD: the transfer protocol
// never deletes users.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.DeleteUser(id); err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// AdjustBalance applies a signed delta to the user's balance as one atomic
// unit. The row lock acquired before reading guarantees that concurrent
// adjustments to the same user serialize instead of interleaving
// read-then-write.
func (s *UserService) AdjustBalance(ctx context.Context, id string, delta int64) (*model.User, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": id,
		"delta":   delta,
	})
	log.Info("Starting balance adjustment")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := s.userRepo.GetUserForUpdate(tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	newBalance := user.Balance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := s.userRepo.UpdateUserBalance(tx, id, newBalance); err != nil {
		return nil, fmt.Errorf("could not update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	user.Balance = newBalance
	s.invalidate(ctx, id)

	log.WithField("new_balance", newBalance).Info("Balance adjusted successfully")
	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Del(ctx, userCacheKey(id))
	}
}
