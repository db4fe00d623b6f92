package contract

import (
	"context"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/pkg/advisor/retrieve"

	"github.com/google/uuid"
)

type KnowledgeEntryRepository interface {
	Create(ctx context.Context, entry *entity.KnowledgeEntry) error
	Update(ctx context.Context, entry *entity.KnowledgeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// Advanced
	SearchSimilarEntries(ctx context.Context, category, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.KnowledgeMatch, error)
	// DistinctCultivars returns the cultivar labels of active entries,
	// feeding the classifier prompt.
	DistinctCultivars(ctx context.Context) ([]string, error)
}
