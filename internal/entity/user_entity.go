package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

type User struct {
	Id uuid.UUID
	// ExternalChatId ties the user to the messaging channel they write
	// from. It is the lookup key for every incoming message.
	ExternalChatId     string
	DisplayName        string
	Status             UserStatus
	TokenBalance       int64
	Location           string
	GrowingEnvironment string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
	IsDeleted          bool
}
