package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationItem struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId         uuid.UUID  `gorm:"type:uuid;not null;index"`
	TopicId        *uuid.UUID `gorm:"type:uuid;index"`
	Category       string     `gorm:"type:varchar(100)"`
	Cultivar       string     `gorm:"type:varchar(100)"`
	Question       string     `gorm:"type:text;not null"`
	ProposedAnswer string     `gorm:"type:text"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewNote     string     `gorm:"type:text"`
	ReviewedAt     *time.Time
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ModerationItem) TableName() string {
	return "moderation_items"
}
