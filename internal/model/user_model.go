package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalChatId     string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	DisplayName        string         `gorm:"type:varchar(255)"`
	Status             string         `gorm:"type:varchar(50);not null;default:'active'"`
	TokenBalance       int64          `gorm:"not null;default:0"`
	Location           string         `gorm:"type:varchar(100)"`
	GrowingEnvironment string         `gorm:"type:varchar(100)"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
