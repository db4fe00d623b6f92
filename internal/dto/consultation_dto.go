package dto

import (
	"time"

	"github.com/google/uuid"
)

// IncomingMessageRequest is one user message from the chat channel. The
// external chat id identifies the user across messengers.
type IncomingMessageRequest struct {
	ExternalChatId string `json:"external_chat_id" validate:"required"`
	DisplayName    string `json:"display_name"`
	Text           string `json:"text" validate:"required"`
}

type ConsultationReplyResponse struct {
	UserId                uuid.UUID  `json:"user_id"`
	TopicId               *uuid.UUID `json:"topic_id,omitempty"`
	Reply                 string     `json:"reply"`
	State                 string     `json:"state"`
	Category              string     `json:"category,omitempty"`
	Cultivar              string     `json:"cultivar,omitempty"`
	FollowUpQuestionsLeft int        `json:"follow_up_questions_left"`
	TokenBalance          int64      `json:"token_balance"`
}

type NewTopicRequest struct {
	ExternalChatId string `json:"external_chat_id" validate:"required"`
}

type BuyFollowUpsRequest struct {
	ExternalChatId string `json:"external_chat_id" validate:"required"`
}

type ReplaceParametersRequest struct {
	ExternalChatId string `json:"external_chat_id" validate:"required"`
}

type TopicResponse struct {
	Id                    uuid.UUID  `json:"id"`
	Status                string     `json:"status"`
	Category              string     `json:"category"`
	Cultivar              string     `json:"cultivar"`
	RootQuestion          string     `json:"root_question"`
	FollowUpQuestionsLeft int        `json:"follow_up_questions_left"`
	ClosedAt              *time.Time `json:"closed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type TopicListResponse struct {
	UserId uuid.UUID       `json:"user_id"`
	Topics []TopicResponse `json:"topics"`
}

type ConsultationHistoryItem struct {
	Id        uuid.UUID  `json:"id"`
	TopicId   *uuid.UUID `json:"topic_id,omitempty"`
	Direction string     `json:"direction"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
}

type ConsultationHistoryResponse struct {
	UserId   uuid.UUID                 `json:"user_id"`
	Messages []ConsultationHistoryItem `json:"messages"`
}
