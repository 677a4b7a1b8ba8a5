// file: model/request.go

package model

// CreateUserRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type CreateUserRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Balance int64  `json:"balance" validate:"gte=0"`
}

// UpdateUserRequest defines the payload for a partial user update.
// Balance is deliberately absent: balances change only through the
// ledger's balance-delta operations.
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateTransactionRequest defines the payload for submitting a transfer.
type CreateTransactionRequest struct {
	FromUserID string `json:"fromUserId" validate:"required"`
	ToUserID   string `json:"toUserId" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

// UpdateTransactionStatusRequest defines the payload for the generic
// status-transition endpoint. "pending" is not a valid target state.
type UpdateTransactionStatusRequest struct {
	Status TransactionStatus `json:"status" validate:"required,oneof=confirmed rejected"`
}
