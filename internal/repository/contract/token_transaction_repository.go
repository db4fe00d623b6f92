package contract

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/repository/specification"
)

type TokenTransactionRepository interface {
	Create(ctx context.Context, transaction *entity.TokenTransaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TokenTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
