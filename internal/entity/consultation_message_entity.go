package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageDirection string

const (
	DirectionUser MessageDirection = "user"
	DirectionBot  MessageDirection = "bot"
)

type ConsultationMessage struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TopicId   *uuid.UUID
	Direction MessageDirection
	Text      string
	CreatedAt time.Time
}
