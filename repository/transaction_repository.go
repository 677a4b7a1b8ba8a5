package repository

import (
	"database/sql"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for transaction database operations.
type ITransactionRepository interface {
	CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error
	GetTransactionByID(id string) (*model.Transaction, error)
	GetTransactionForUpdate(tx *sql.Tx, id string) (*model.Transaction, error)
	UpdateTransactionStatus(tx *sql.Tx, transaction *model.Transaction) error
	GetAllTransactions() ([]*model.Transaction, error)
	GetTransactionsByUserID(userID string) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

func (r *TransactionRepository) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"from_user_id":   transaction.FromUserID,
		"to_user_id":     transaction.ToUserID,
		"amount":         transaction.Amount,
		"status":         transaction.Status,
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (id, from_user_id, to_user_id, amount, status, date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := tx.QueryRow(query,
		transaction.ID, transaction.FromUserID, transaction.ToUserID,
		transaction.Amount, transaction.Status, transaction.Date,
	).Scan(&transaction.CreatedAt, &transaction.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

func (r *TransactionRepository) GetTransactionByID(id string) (*model.Transaction, error) {
	t := &model.Transaction{}
	query := `SELECT id, from_user_id, to_user_id, amount, status, date, created_at, updated_at
		FROM transactions WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.FromUserID, &t.ToUserID, &t.Amount, &t.Status, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTransactionForUpdate locks the transaction row so that at most one
// status transition is in flight per transaction id.
func (r *TransactionRepository) GetTransactionForUpdate(tx *sql.Tx, id string) (*model.Transaction, error) {
	log := logger.Log.WithField("transaction_id", id)
	log.Info("Executing query to get transaction for update")

	t := &model.Transaction{}
	query := `SELECT id, from_user_id, to_user_id, amount, status, date, created_at, updated_at
		FROM transactions WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, id).Scan(
		&t.ID, &t.FromUserID, &t.ToUserID, &t.Amount, &t.Status, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Transaction not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get transaction for update query")
		}
		return nil, err
	}
	return t, nil
}

// UpdateTransactionStatus writes the transaction's current status inside an
// open transaction. The caller must hold the row lock acquired via
// GetTransactionForUpdate.
func (r *TransactionRepository) UpdateTransactionStatus(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"status":         transaction.Status,
	})
	log.Info("Executing query to update transaction status")

	query := `UPDATE transactions SET status = $1, updated_at = now() WHERE id = $2 RETURNING updated_at`
	err := tx.QueryRow(query, transaction.Status, transaction.ID).Scan(&transaction.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute update transaction status query")
		return err
	}
	return nil
}

// GetAllTransactions retrieves every transaction, most recent first.
func (r *TransactionRepository) GetAllTransactions() ([]*model.Transaction, error) {
	log := logger.Log
	log.Info("Executing query to get all transactions")

	query := `
		SELECT id, from_user_id, to_user_id, amount, status, date, created_at, updated_at
		FROM transactions
		ORDER BY date DESC`

	return r.queryTransactions(query)
}

// GetTransactionsByUserID retrieves transactions where the user is either
// the sender or the receiver, most recent first.
func (r *TransactionRepository) GetTransactionsByUserID(userID string) ([]*model.Transaction, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get transactions by user ID")

	query := `
		SELECT id, from_user_id, to_user_id, amount, status, date, created_at, updated_at
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY date DESC`

	return r.queryTransactions(query, userID)
}

func (r *TransactionRepository) queryTransactions(query string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute transactions query")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.FromUserID, &t.ToUserID, &t.Amount, &t.Status, &t.Date, &t.CreatedAt, &t.UpdatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	return transactions, nil
}
