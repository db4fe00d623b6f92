package implementation

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/mapper"
	"berry-advisory-be/internal/model"
	"berry-advisory-be/internal/repository/contract"
	"berry-advisory-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ConsultationLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConsultationMapper
}

func NewConsultationLogRepository(db *gorm.DB) contract.ConsultationLogRepository {
	return &ConsultationLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewConsultationMapper(),
	}
}

func (r *ConsultationLogRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConsultationLogRepositoryImpl) Create(ctx context.Context, log *entity.ConsultationLog) error {
	m := r.mapper.LogToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*log = *r.mapper.LogToEntity(m)
	return nil
}

func (r *ConsultationLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationLog, error) {
	var models []*model.ConsultationLog
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConsultationLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.LogToEntity(m)
	}
	return entities, nil
}

func (r *ConsultationLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ConsultationLog{}).Count(&count).Error
	return count, err
}
