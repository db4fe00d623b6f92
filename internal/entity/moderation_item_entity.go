package entity

import (
	"time"

	"github.com/google/uuid"
)

type ModerationStatus string

const (
	ModerationStatusPending  ModerationStatus = "pending"
	ModerationStatusApproved ModerationStatus = "approved"
	ModerationStatusRejected ModerationStatus = "rejected"
)

// ModerationItem is a question/answer pair captured from a live
// consultation and queued for expert review. Approval promotes it into the
// curated knowledge base.
type ModerationItem struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	TopicId        *uuid.UUID
	Category       string
	Cultivar       string
	Question       string
	ProposedAnswer string
	Status         ModerationStatus
	ReviewNote     string
	ReviewedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
