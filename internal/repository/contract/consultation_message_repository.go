package contract

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConsultationMessageRepository interface {
	Create(ctx context.Context, message *entity.ConsultationMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindRecentByUser returns the user's last messages in one direction,
	// newest first, for topic-change context.
	FindRecentByUser(ctx context.Context, userId uuid.UUID, direction entity.MessageDirection, limit int) ([]*entity.ConsultationMessage, error)
}
