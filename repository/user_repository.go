package repository

import (
	"database/sql"
	"errors"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateEmail is returned when an insert or update violates the
// unique constraint on users.email.
var ErrDuplicateEmail = errors.New("email already in use")

// IUserRepository defines the contract for user database operations.
type IUserRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetAllUsers() ([]*model.User, error)
	GetUserForUpdate(tx *sql.Tx, id string) (*model.User, error)
	UpdateUserBalance(tx *sql.Tx, id string, newBalance int64) error
	UpdateUser(user *model.User) error
	DeleteUser(id string) error
}

// UserRepository implements IUserRepository.
type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateUser adds a new user to the database.
func (r *UserRepository) CreateUser(user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (id, name, email, balance) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`
	err := r.DB.QueryRow(query, user.ID, user.Name, user.Email, user.Balance).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			log.Info("Email already registered")
			return ErrDuplicateEmail
		}
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

func (r *UserRepository) GetUserByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, name, email, balance, created_at, updated_at FROM users WHERE id = $1`
	err := r.DB.QueryRow(query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT id, name, email, balance, created_at, updated_at FROM users WHERE email = $1`
	err := r.DB.QueryRow(query, email).Scan(&user.ID, &user.Name, &user.Email, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetAllUsers retrieves every user record.
func (r *UserRepository) GetAllUsers() ([]*model.User, error) {
	log := logger.Log
	log.Info("Executing query to get all users")

	query := `SELECT id, name, email, balance, created_at, updated_at FROM users ORDER BY created_at`
	rows, err := r.DB.Query(query)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for all users")
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.WithError(err).Error("Failed to scan user row")
			return nil, err
		}
		users = append(users, &u)
	}
	return users, nil
}

// GetUserForUpdate locks the user row for the duration of the enclosing
// transaction. Concurrent balance adjustments on the same user serialize
// on this lock.
func (r *UserRepository) GetUserForUpdate(tx *sql.Tx, id string) (*model.User, error) {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to get user for update")

	user := &model.User{}
	query := `SELECT id, name, email, balance, created_at, updated_at FROM users WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("User not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get user for update query")
		}
		return nil, err
	}
	return user, nil
}

// UpdateUserBalance writes a new balance inside an open transaction. The
// caller must hold the row lock acquired via GetUserForUpdate.
func (r *UserRepository) UpdateUserBalance(tx *sql.Tx, id string, newBalance int64) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":     id,
		"new_balance": newBalance,
	})
	log.Info("Executing query to update user balance")

	query := `UPDATE users SET balance = $1, updated_at = now() WHERE id = $2`
	_, err := tx.Exec(query, newBalance, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update user balance query")
		return err
	}
	return nil
}

// UpdateUser persists name/email changes for an existing user.
func (r *UserRepository) UpdateUser(user *model.User) error {
	log := logger.Log.WithField("user_id", user.ID)
	log.Info("Executing query to update user")

	query := `UPDATE users SET name = $1, email = $2, updated_at = now() WHERE id = $3 RETURNING updated_at`
	err := r.DB.QueryRow(query, user.Name, user.Email, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateEmail
		}
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute update user query")
		}
		return err
	}
	return nil
}

func (r *UserRepository) DeleteUser(id string) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to delete user")

	result, err := r.DB.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete user query")
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
