package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationLog is the auditable trail of engine decisions: state
// transitions, classifications, retrieval outcomes, billing actions.
// Details holds the operation-specific payload as JSON.
type ConsultationLog struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	TopicId   *uuid.UUID
	Operation string
	Details   map[string]interface{}
	CreatedAt time.Time
}
