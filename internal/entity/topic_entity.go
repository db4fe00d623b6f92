package entity

import (
	"time"

	"github.com/google/uuid"
)

type TopicStatus string

const (
	TopicStatusOpen   TopicStatus = "open"
	TopicStatusClosed TopicStatus = "closed"
)

// Topic is one paid consultation thread: a root question plus up to three
// free follow-ups about the same plant.
type Topic struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	Status                TopicStatus
	Category              string
	Cultivar              string
	RootQuestion          string
	FollowUpQuestionsLeft int
	SessionId             string
	ClosedAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             *time.Time
	DeletedAt             *time.Time
	IsDeleted             bool
}
