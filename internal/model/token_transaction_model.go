package model

import (
	"time"

	"github.com/google/uuid"
)

type TokenTransaction struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Operation    string    `gorm:"type:varchar(10);not null"`
	Amount       int64     `gorm:"not null"`
	BalanceAfter int64     `gorm:"not null"`
	Reference    string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
}

func (TokenTransaction) TableName() string {
	return "token_transactions"
}
