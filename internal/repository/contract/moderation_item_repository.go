package contract

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ModerationItemRepository interface {
	Create(ctx context.Context, item *entity.ModerationItem) error
	Update(ctx context.Context, item *entity.ModerationItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ModerationItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModerationItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
