package mapper

import (
	"time"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/model"

	"gorm.io/gorm"
)

type ModerationMapper struct{}

func NewModerationMapper() *ModerationMapper {
	return &ModerationMapper{}
}

func (m *ModerationMapper) ToEntity(i *model.ModerationItem) *entity.ModerationItem {
	if i == nil {
		return nil
	}

	var deletedAt *time.Time
	if i.DeletedAt.Valid {
		t := i.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	return &entity.ModerationItem{
		Id:             i.Id,
		UserId:         i.UserId,
		TopicId:        i.TopicId,
		Category:       i.Category,
		Cultivar:       i.Cultivar,
		Question:       i.Question,
		ProposedAnswer: i.ProposedAnswer,
		Status:         entity.ModerationStatus(i.Status),
		ReviewNote:     i.ReviewNote,
		ReviewedAt:     i.ReviewedAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      i.DeletedAt.Valid,
	}
}

func (m *ModerationMapper) ToModel(i *entity.ModerationItem) *model.ModerationItem {
	if i == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if i.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *i.DeletedAt, Valid: true}
	} else if i.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if i.UpdatedAt != nil {
		updatedAt = *i.UpdatedAt
	}

	return &model.ModerationItem{
		Id:             i.Id,
		UserId:         i.UserId,
		TopicId:        i.TopicId,
		Category:       i.Category,
		Cultivar:       i.Cultivar,
		Question:       i.Question,
		ProposedAnswer: i.ProposedAnswer,
		Status:         string(i.Status),
		ReviewNote:     i.ReviewNote,
		ReviewedAt:     i.ReviewedAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}
