package dto

import (
	"time"

	"github.com/google/uuid"
)

type ModerationItemResponse struct {
	Id             uuid.UUID  `json:"id"`
	UserId         uuid.UUID  `json:"user_id"`
	TopicId        *uuid.UUID `json:"topic_id,omitempty"`
	Category       string     `json:"category"`
	Cultivar       string     `json:"cultivar"`
	Question       string     `json:"question"`
	ProposedAnswer string     `json:"proposed_answer"`
	Status         string     `json:"status"`
	ReviewNote     string     `json:"review_note,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ReviewModerationRequest struct {
	Id         uuid.UUID
	Answer     string `json:"answer"` // optional edited answer on approve
	ReviewNote string `json:"review_note"`
}
