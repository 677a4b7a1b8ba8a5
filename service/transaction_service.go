package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrSameUserTransfer         = errors.New("cannot transfer money to the same user")
	ErrOnlyPendingCanBeApproved = errors.New("only pending transactions can be approved")
	ErrOnlyPendingCanBeRejected = errors.New("only pending transactions can be rejected")
	ErrOnlyPendingCanBeUpdated  = errors.New("only pending transactions can be updated")
	ErrInvalidStatus            = errors.New("invalid target status")
)

// TransactionService orchestrates transfers between users. Transfers at or
// below the auto-approval threshold confirm immediately; larger ones are
// held as pending until approved or rejected. The sender is debited at
// creation time either way, so pending funds sit in escrow.
type TransactionService struct {
	db              *sql.DB
	userRepo        repository.IUserRepository
	transactionRepo repository.ITransactionRepository
	cache           ICacheClient
	// Transfers above this amount (minor units) require manual approval.
	autoApprovalThreshold int64
}

func NewTransactionService(db *sql.DB, userRepo repository.IUserRepository, transactionRepo repository.ITransactionRepository, cache ICacheClient, autoApprovalThreshold int64) *TransactionService {
	return &TransactionService{
		db:                    db,
		userRepo:              userRepo,
		transactionRepo:       transactionRepo,
		cache:                 cache,
		autoApprovalThreshold: autoApprovalThreshold,
	}
}

// CreateTransaction records a transfer and moves the money. The insert,
// the sender debit and (for auto-confirmed transfers) the receiver credit
// commit or roll back as one unit.
func (s *TransactionService) CreateTransaction(ctx context.Context, req model.CreateTransactionRequest) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"from_user_id": req.FromUserID,
		"to_user_id":   req.ToUserID,
		"amount":       req.Amount,
	})
	log.Info("Starting transaction creation")

	if req.FromUserID == req.ToUserID {
		return nil, ErrSameUserTransfer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	fromUser, err := s.userRepo.GetUserForUpdate(tx, req.FromUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	toUser, err := s.userRepo.GetUserForUpdate(tx, req.ToUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if fromUser.Balance < req.Amount {
		return nil, ErrInsufficientBalance
	}

	status := model.StatusConfirmed
	if req.Amount > s.autoApprovalThreshold {
		status = model.StatusPending
	}

	transaction := &model.Transaction{
		ID:         uuid.NewString(),
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		Status:     status,
		Date:       time.Now().UTC(),
	}

	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		return nil, fmt.Errorf("could not create transaction record: %w", err)
	}

	// Debit the sender regardless of status: pending transfers hold the
	// money in escrow until approved or rejected.
	if err := s.userRepo.UpdateUserBalance(tx, fromUser.ID, fromUser.Balance-req.Amount); err != nil {
		return nil, fmt.Errorf("could not update sender balance: %w", err)
	}

	if status == model.StatusConfirmed {
		if err := s.userRepo.UpdateUserBalance(tx, toUser.ID, toUser.Balance+req.Amount); err != nil {
			return nil, fmt.Errorf("could not update receiver balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.invalidateUsers(ctx, req.FromUserID, req.ToUserID)

	log.WithField("status", status).Info("Transaction created successfully")
	return transaction, nil
}

// GetTransactionByID retrieves a single transaction.
func (s *TransactionService) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns all transactions, most recent first. When a
// userID is given, only transactions where that user is the sender or the
// receiver are returned.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]*model.Transaction, error) {
	if userID != "" {
		return s.transactionRepo.GetTransactionsByUserID(userID)
	}
	return s.transactionRepo.GetAllTransactions()
}

// ApproveTransaction confirms a pending transfer and credits the receiver.
// The sender was already debited at creation.
func (s *TransactionService) ApproveTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return s.transition(ctx, id, model.StatusConfirmed, ErrOnlyPendingCanBeApproved)
}

// RejectTransaction rejects a pending transfer and returns the escrowed
// funds to the sender.
func (s *TransactionService) RejectTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return s.transition(ctx, id, model.StatusRejected, ErrOnlyPendingCanBeRejected)
}

// UpdateTransactionStatus is the generic form of approve/reject. The
// target status must be confirmed or rejected; pending is not a valid
// target.
func (s *TransactionService) UpdateTransactionStatus(ctx context.Context, id string, status model.TransactionStatus) (*model.Transaction, error) {
	if status != model.StatusConfirmed && status != model.StatusRejected {
		return nil, ErrInvalidStatus
	}
	return s.transition(ctx, id, status, ErrOnlyPendingCanBeUpdated)
}

// transition performs a pending -> terminal state change and the matching
// balance credit as one unit. The transaction row is locked before the
// status is re-checked, so a second concurrent approve/reject either waits
// on the lock or observes the terminal state and fails with guardErr.
func (s *TransactionService) transition(ctx context.Context, id string, target model.TransactionStatus, guardErr error) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": id,
		"target_status":  target,
	})
	log.Info("Starting transaction status transition")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	transaction, err := s.transactionRepo.GetTransactionForUpdate(tx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if transaction.Status != model.StatusPending {
		return nil, guardErr
	}

	transaction.Status = target
	if err := s.transactionRepo.UpdateTransactionStatus(tx, transaction); err != nil {
		return nil, fmt.Errorf("could not update transaction status: %w", err)
	}

	// Confirmed: credit the receiver. Rejected: refund the sender. The
	// sender's debit from creation stands in both cases.
	creditUserID := transaction.ToUserID
	if target == model.StatusRejected {
		creditUserID = transaction.FromUserID
	}

	creditUser, err := s.userRepo.GetUserForUpdate(tx, creditUserID)
	if err != nil {
		return nil, fmt.Errorf("could not lock user for credit: %w", err)
	}

	if err := s.userRepo.UpdateUserBalance(tx, creditUser.ID, creditUser.Balance+transaction.Amount); err != nil {
		return nil, fmt.Errorf("could not update user balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.invalidateUsers(ctx, creditUserID)

	log.Info("Transaction status transition completed")
	return transaction, nil
}

func (s *TransactionService) invalidateUsers(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, userCacheKey(id))
	}
	s.cache.Del(ctx, keys...)
}
