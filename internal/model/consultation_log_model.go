package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConsultationLog struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	TopicId   *uuid.UUID     `gorm:"type:uuid;index"`
	Operation string         `gorm:"type:varchar(100);not null;index"`
	Details   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
}

func (ConsultationLog) TableName() string {
	return "consultation_logs"
}
