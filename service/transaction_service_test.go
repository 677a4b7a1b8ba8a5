// service/transaction_service_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	exitCode := m.Run()
	os.Exit(exitCode)
}

// MockUserRepository is a mock for IUserRepository.
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) CreateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *MockUserRepository) GetUserByID(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) GetUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) GetAllUsers() ([]*model.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}
func (m *MockUserRepository) GetUserForUpdate(tx *sql.Tx, id string) (*model.User, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) UpdateUserBalance(tx *sql.Tx, id string, newBalance int64) error {
	args := m.Called(tx, id, newBalance)
	return args.Error(0)
}
func (m *MockUserRepository) UpdateUser(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}
func (m *MockUserRepository) DeleteUser(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockTransactionRepository is a mock for ITransactionRepository.
type MockTransactionRepository struct{ mock.Mock }

func (m *MockTransactionRepository) CreateTransaction(tx *sql.Tx, tr *model.Transaction) error {
	args := m.Called(tx, tr)
	return args.Error(0)
}
func (m *MockTransactionRepository) GetTransactionByID(id string) (*model.Transaction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}
func (m *MockTransactionRepository) GetTransactionForUpdate(tx *sql.Tx, id string) (*model.Transaction, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}
func (m *MockTransactionRepository) UpdateTransactionStatus(tx *sql.Tx, tr *model.Transaction) error {
	args := m.Called(tx, tr)
	return args.Error(0)
}
func (m *MockTransactionRepository) GetAllTransactions() ([]*model.Transaction, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}
func (m *MockTransactionRepository) GetTransactionsByUserID(userID string) ([]*model.Transaction, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

const testThreshold = int64(50000)

func newTestService(t *testing.T) (*TransactionService, sqlmock.Sqlmock, *MockUserRepository, *MockTransactionRepository) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)
	svc := NewTransactionService(db, mockUserRepo, mockTxnRepo, nil, testThreshold)
	return svc, dbMock, mockUserRepo, mockTxnRepo
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	req := model.CreateTransactionRequest{
		FromUserID: "user-a",
		ToUserID:   "user-b",
		Amount:     25000,
	}

	t.Run("auto-confirms below threshold and moves money", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 100000}
		toUser := &model.User{ID: "user-b", Balance: 50000}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		txnRepo.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*model.Transaction")).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(75000)).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-b", int64(75000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.CreateTransaction(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, transaction.Status)
		assert.Equal(t, int64(25000), transaction.Amount)
		assert.NotEmpty(t, transaction.ID)
		userRepo.AssertExpectations(t)
		txnRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("holds above threshold as pending and debits only the sender", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 100000}
		toUser := &model.User{ID: "user-b", Balance: 50000}
		bigReq := model.CreateTransactionRequest{FromUserID: "user-a", ToUserID: "user-b", Amount: 75000}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		txnRepo.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*model.Transaction")).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(25000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.CreateTransaction(ctx, bigReq)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, transaction.Status)
		userRepo.AssertExpectations(t)
		userRepo.AssertNotCalled(t, "UpdateUserBalance", mock.Anything, "user-b", mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("exactly at threshold still auto-confirms", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 100000}
		toUser := &model.User{ID: "user-b", Balance: 0}
		edgeReq := model.CreateTransactionRequest{FromUserID: "user-a", ToUserID: "user-b", Amount: testThreshold}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		txnRepo.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*model.Transaction")).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(50000)).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-b", int64(50000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.CreateTransaction(ctx, edgeReq)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, transaction.Status)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("insufficient balance creates nothing", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 10000}
		toUser := &model.User{ID: "user-b", Balance: 50000}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		dbMock.ExpectRollback()

		_, err := svc.CreateTransaction(ctx, req)

		assert.Equal(t, ErrInsufficientBalance, err)
		txnRepo.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
		userRepo.AssertNotCalled(t, "UpdateUserBalance", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing sender", func(t *testing.T) {
		svc, dbMock, userRepo, _ := newTestService(t)

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(nil, sql.ErrNoRows).Once()
		dbMock.ExpectRollback()

		_, err := svc.CreateTransaction(ctx, req)

		assert.Equal(t, ErrUserNotFound, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("missing receiver", func(t *testing.T) {
		svc, dbMock, userRepo, _ := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 100000}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(nil, sql.ErrNoRows).Once()
		dbMock.ExpectRollback()

		_, err := svc.CreateTransaction(ctx, req)

		assert.Equal(t, ErrUserNotFound, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("same user transfer", func(t *testing.T) {
		svc, dbMock, _, _ := newTestService(t)

		_, err := svc.CreateTransaction(ctx, model.CreateTransactionRequest{
			FromUserID: "user-a", ToUserID: "user-a", Amount: 100,
		})

		assert.Equal(t, ErrSameUserTransfer, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("commit error rolls everything back", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		fromUser := &model.User{ID: "user-a", Balance: 100000}
		toUser := &model.User{ID: "user-b", Balance: 50000}

		dbMock.ExpectBegin()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		txnRepo.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*model.Transaction")).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(75000)).Return(nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-b", int64(75000)).Return(nil).Once()
		dbMock.ExpectCommit().WillReturnError(errors.New("commit failed"))

		_, err := svc.CreateTransaction(ctx, req)

		assert.Error(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTransactionService_ApproveTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the receiver, sender already debited", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		pending := &model.Transaction{
			ID: "txn-1", FromUserID: "user-a", ToUserID: "user-b",
			Amount: 75000, Status: model.StatusPending,
		}
		toUser := &model.User{ID: "user-b", Balance: 50000}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(pending, nil).Once()
		txnRepo.On("UpdateTransactionStatus", mock.Anything, pending).Return(nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-b", int64(125000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.ApproveTransaction(ctx, "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, transaction.Status)
		userRepo.AssertNotCalled(t, "UpdateUserBalance", mock.Anything, "user-a", mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("already confirmed", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		confirmed := &model.Transaction{ID: "txn-1", Status: model.StatusConfirmed}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(confirmed, nil).Once()
		dbMock.ExpectRollback()

		_, err := svc.ApproveTransaction(ctx, "txn-1")

		assert.Equal(t, ErrOnlyPendingCanBeApproved, err)
		userRepo.AssertNotCalled(t, "UpdateUserBalance", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		svc, dbMock, _, txnRepo := newTestService(t)

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "missing").Return(nil, sql.ErrNoRows).Once()
		dbMock.ExpectRollback()

		_, err := svc.ApproveTransaction(ctx, "missing")

		assert.Equal(t, ErrTransactionNotFound, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTransactionService_RejectTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("returns escrowed funds to the sender", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		pending := &model.Transaction{
			ID: "txn-1", FromUserID: "user-a", ToUserID: "user-b",
			Amount: 75000, Status: model.StatusPending,
		}
		fromUser := &model.User{ID: "user-a", Balance: 25000}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(pending, nil).Once()
		txnRepo.On("UpdateTransactionStatus", mock.Anything, pending).Return(nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(100000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.RejectTransaction(ctx, "txn-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusRejected, transaction.Status)
		userRepo.AssertNotCalled(t, "UpdateUserBalance", mock.Anything, "user-b", mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("already rejected", func(t *testing.T) {
		svc, dbMock, _, txnRepo := newTestService(t)

		rejected := &model.Transaction{ID: "txn-1", Status: model.StatusRejected}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(rejected, nil).Once()
		dbMock.ExpectRollback()

		_, err := svc.RejectTransaction(ctx, "txn-1")

		assert.Equal(t, ErrOnlyPendingCanBeRejected, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTransactionService_UpdateTransactionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending is not a valid target", func(t *testing.T) {
		svc, dbMock, _, _ := newTestService(t)

		_, err := svc.UpdateTransactionStatus(ctx, "txn-1", model.StatusPending)

		assert.Equal(t, ErrInvalidStatus, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("confirmed behaves like approve", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		pending := &model.Transaction{
			ID: "txn-1", FromUserID: "user-a", ToUserID: "user-b",
			Amount: 60000, Status: model.StatusPending,
		}
		toUser := &model.User{ID: "user-b", Balance: 0}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(pending, nil).Once()
		txnRepo.On("UpdateTransactionStatus", mock.Anything, pending).Return(nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-b").Return(toUser, nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-b", int64(60000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.UpdateTransactionStatus(ctx, "txn-1", model.StatusConfirmed)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, transaction.Status)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("rejected behaves like reject", func(t *testing.T) {
		svc, dbMock, userRepo, txnRepo := newTestService(t)

		pending := &model.Transaction{
			ID: "txn-1", FromUserID: "user-a", ToUserID: "user-b",
			Amount: 60000, Status: model.StatusPending,
		}
		fromUser := &model.User{ID: "user-a", Balance: 0}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(pending, nil).Once()
		txnRepo.On("UpdateTransactionStatus", mock.Anything, pending).Return(nil).Once()
		userRepo.On("GetUserForUpdate", mock.Anything, "user-a").Return(fromUser, nil).Once()
		userRepo.On("UpdateUserBalance", mock.Anything, "user-a", int64(60000)).Return(nil).Once()
		dbMock.ExpectCommit()

		transaction, err := svc.UpdateTransactionStatus(ctx, "txn-1", model.StatusRejected)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusRejected, transaction.Status)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("terminal state cannot be updated", func(t *testing.T) {
		svc, dbMock, _, txnRepo := newTestService(t)

		confirmed := &model.Transaction{ID: "txn-1", Status: model.StatusConfirmed}

		dbMock.ExpectBegin()
		txnRepo.On("GetTransactionForUpdate", mock.Anything, "txn-1").Return(confirmed, nil).Once()
		dbMock.ExpectRollback()

		_, err := svc.UpdateTransactionStatus(ctx, "txn-1", model.StatusRejected)

		assert.Equal(t, ErrOnlyPendingCanBeUpdated, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestTransactionService_ListTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("without filter returns everything", func(t *testing.T) {
		svc, _, _, txnRepo := newTestService(t)

		all := []*model.Transaction{{ID: "t1"}, {ID: "t2"}}
		txnRepo.On("GetAllTransactions").Return(all, nil).Once()

		transactions, err := svc.ListTransactions(ctx, "")

		assert.NoError(t, err)
		assert.Len(t, transactions, 2)
		txnRepo.AssertExpectations(t)
	})

	t.Run("with filter delegates to the user query", func(t *testing.T) {
		svc, _, _, txnRepo := newTestService(t)

		mine := []*model.Transaction{{ID: "t1", FromUserID: "user-a"}}
		txnRepo.On("GetTransactionsByUserID", "user-a").Return(mine, nil).Once()

		transactions, err := svc.ListTransactions(ctx, "user-a")

		assert.NoError(t, err)
		assert.Len(t, transactions, 1)
		txnRepo.AssertExpectations(t)
	})
}
