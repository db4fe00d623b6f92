package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Topic struct {
	Id                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId                uuid.UUID `gorm:"type:uuid;not null;index"`
	Status                string    `gorm:"type:varchar(20);not null;default:'open';index"`
	Category              string    `gorm:"type:varchar(100)"`
	Cultivar              string    `gorm:"type:varchar(100)"`
	RootQuestion          string    `gorm:"type:text"`
	FollowUpQuestionsLeft int       `gorm:"not null;default:3"`
	SessionId             string    `gorm:"type:varchar(64);index"`
	ClosedAt              *time.Time
	CreatedAt             time.Time      `gorm:"autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime"`
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (Topic) TableName() string {
	return "topics"
}
