package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenOperation string

const (
	TokenOperationDebit  TokenOperation = "debit"
	TokenOperationCredit TokenOperation = "credit"
)

// TokenTransaction is the audit row written alongside every balance
// change. Amount is positive; Operation states the direction.
type TokenTransaction struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Operation    TokenOperation
	Amount       int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}
