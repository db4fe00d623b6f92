package implementation

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/mapper"
	"berry-advisory-be/internal/model"
	"berry-advisory-be/internal/repository/contract"
	"berry-advisory-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultationMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConsultationMapper
}

func NewConsultationMessageRepository(db *gorm.DB) contract.ConsultationMessageRepository {
	return &ConsultationMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewConsultationMapper(),
	}
}

func (r *ConsultationMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConsultationMessageRepositoryImpl) Create(ctx context.Context, message *entity.ConsultationMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ConsultationMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationMessage, error) {
	var models []*model.ConsultationMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConsultationMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}

func (r *ConsultationMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ConsultationMessage{}).Count(&count).Error
	return count, err
}

func (r *ConsultationMessageRepositoryImpl) FindRecentByUser(ctx context.Context, userId uuid.UUID, direction entity.MessageDirection, limit int) ([]*entity.ConsultationMessage, error) {
	if limit <= 0 {
		limit = 3
	}
	var models []*model.ConsultationMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Where("direction = ?", string(direction)).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.ConsultationMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MessageToEntity(m)
	}
	return entities, nil
}
