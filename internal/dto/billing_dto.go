package dto

import (
	"time"

	"github.com/google/uuid"
)

type TopUpRequest struct {
	ExternalChatId string `json:"external_chat_id" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
}

type TopUpResponse struct {
	UserId       uuid.UUID `json:"user_id"`
	TokenBalance int64     `json:"token_balance"`
}

type BalanceResponse struct {
	UserId       uuid.UUID `json:"user_id"`
	TokenBalance int64     `json:"token_balance"`
}

type TokenTransactionResponse struct {
	Id           uuid.UUID `json:"id"`
	Operation    string    `json:"operation"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}
