package model

import (
	"time"
)

// TransactionStatus enumerates the lifecycle states of a transfer.
// A transaction leaves "pending" at most once; "confirmed" and
// "rejected" are terminal.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusConfirmed TransactionStatus = "confirmed"
	StatusRejected  TransactionStatus = "rejected"
)

type Transaction struct {
	ID         string            `json:"id"`
	FromUserID string            `json:"fromUserId"`
	ToUserID   string            `json:"toUserId"`
	Amount     int64             `json:"amount"`
	Status     TransactionStatus `json:"status"`
	Date       time.Time         `json:"date"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}
