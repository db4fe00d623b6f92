package model

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationMessage struct {
	Id        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"`
	TopicId   *uuid.UUID `gorm:"type:uuid;index"`
	Direction string     `gorm:"type:varchar(10);not null"`
	Text      string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
}

func (ConsultationMessage) TableName() string {
	return "consultation_messages"
}
