package mapper

import (
	"encoding/json"
	"time"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConsultationMapper struct{}

func NewConsultationMapper() *ConsultationMapper {
	return &ConsultationMapper{}
}

// Topic Mappers

func (m *ConsultationMapper) TopicToEntity(t *model.Topic) *entity.Topic {
	if t == nil {
		return nil
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		dt := t.DeletedAt.Time
		deletedAt = &dt
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		ut := t.UpdatedAt
		updatedAt = &ut
	}

	return &entity.Topic{
		Id:                    t.Id,
		UserId:                t.UserId,
		Status:                entity.TopicStatus(t.Status),
		Category:              t.Category,
		Cultivar:              t.Cultivar,
		RootQuestion:          t.RootQuestion,
		FollowUpQuestionsLeft: t.FollowUpQuestionsLeft,
		SessionId:             t.SessionId,
		ClosedAt:              t.ClosedAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             updatedAt,
		DeletedAt:             deletedAt,
		IsDeleted:             t.DeletedAt.Valid,
	}
}

func (m *ConsultationMapper) TopicToModel(t *entity.Topic) *model.Topic {
	if t == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Topic{
		Id:                    t.Id,
		UserId:                t.UserId,
		Status:                string(t.Status),
		Category:              t.Category,
		Cultivar:              t.Cultivar,
		RootQuestion:          t.RootQuestion,
		FollowUpQuestionsLeft: t.FollowUpQuestionsLeft,
		SessionId:             t.SessionId,
		ClosedAt:              t.ClosedAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             updatedAt,
		DeletedAt:             deletedAt,
	}
}

// Message Mappers

func (m *ConsultationMapper) MessageToEntity(msg *model.ConsultationMessage) *entity.ConsultationMessage {
	if msg == nil {
		return nil
	}

	return &entity.ConsultationMessage{
		Id:        msg.Id,
		UserId:    msg.UserId,
		TopicId:   msg.TopicId,
		Direction: entity.MessageDirection(msg.Direction),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ConsultationMapper) MessageToModel(msg *entity.ConsultationMessage) *model.ConsultationMessage {
	if msg == nil {
		return nil
	}

	return &model.ConsultationMessage{
		Id:        msg.Id,
		UserId:    msg.UserId,
		TopicId:   msg.TopicId,
		Direction: string(msg.Direction),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}
}

// Log Mappers

func (m *ConsultationMapper) LogToEntity(l *model.ConsultationLog) *entity.ConsultationLog {
	if l == nil {
		return nil
	}

	var details map[string]interface{}
	if len(l.Details) > 0 {
		// Details written by us are always a JSON object; an unreadable
		// payload becomes an empty map rather than a dropped log row.
		_ = json.Unmarshal(l.Details, &details)
	}

	return &entity.ConsultationLog{
		Id:        l.Id,
		UserId:    l.UserId,
		TopicId:   l.TopicId,
		Operation: l.Operation,
		Details:   details,
		CreatedAt: l.CreatedAt,
	}
}

func (m *ConsultationMapper) LogToModel(l *entity.ConsultationLog) *model.ConsultationLog {
	if l == nil {
		return nil
	}

	var details datatypes.JSON
	if l.Details != nil {
		if data, err := json.Marshal(l.Details); err == nil {
			details = datatypes.JSON(data)
		}
	}

	return &model.ConsultationLog{
		Id:        l.Id,
		UserId:    l.UserId,
		TopicId:   l.TopicId,
		Operation: l.Operation,
		Details:   details,
		CreatedAt: l.CreatedAt,
	}
}
