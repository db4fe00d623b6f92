package contract

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/repository/specification"
)

type ConsultationLogRepository interface {
	Create(ctx context.Context, log *entity.ConsultationLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
