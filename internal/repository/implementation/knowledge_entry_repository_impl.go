package implementation

import (
	"context"
	"errors"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/mapper"
	"berry-advisory-be/internal/model"
	"berry-advisory-be/internal/repository/contract"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/pkg/advisor/retrieve"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeEntryRepository(db *gorm.DB) contract.KnowledgeEntryRepository {
	return &KnowledgeEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeEntryRepositoryImpl) Create(ctx context.Context, entry *entity.KnowledgeEntry) error {
	m := r.mapper.EntryToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.EntryToEntity(m)
	return nil
}

func (r *KnowledgeEntryRepositoryImpl) Update(ctx context.Context, entry *entity.KnowledgeEntry) error {
	m := r.mapper.EntryToModel(entry)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.EntryToEntity(m)
	return nil
}

func (r *KnowledgeEntryRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.KnowledgeEntry{}, id).Error
}

func (r *KnowledgeEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error) {
	var m model.KnowledgeEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.EntryToEntity(&m), nil
}

func (r *KnowledgeEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error) {
	var models []*model.KnowledgeEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.KnowledgeEntry, len(models))
	for i, m := range models {
		entities[i] = r.mapper.EntryToEntity(m)
	}
	return entities, nil
}

func (r *KnowledgeEntryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KnowledgeEntry{}).Count(&count).Error
	return count, err
}

// SearchSimilarEntries scores active entries against the query vector with
// pgvector cosine distance. Cosine similarity is 1 - distance; rows under
// minSimilarity are filtered in SQL. Empty category/cultivar disables that
// filter.
func (r *KnowledgeEntryRepositoryImpl) SearchSimilarEntries(ctx context.Context, category, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.KnowledgeMatch, error) {
	if limit <= 0 {
		limit = 2
	}

	type result struct {
		model.KnowledgeEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("knowledge_entries").
		Select("knowledge_entries.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL").
		Where("active = ?", true).
		Where("1 - (embedding <=> ?) >= ?", queryVector, minSimilarity)

	if category != "" {
		query = query.Where("category = ?", category)
	}
	if cultivar != "" {
		query = query.Where("cultivar = ?", cultivar)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	matches := make([]retrieve.KnowledgeMatch, len(results))
	for i, res := range results {
		matches[i] = retrieve.KnowledgeMatch{
			RecordID:   res.Id,
			Question:   res.Question,
			Answer:     res.Answer,
			Category:   res.Category,
			Cultivar:   res.Cultivar,
			Similarity: res.Similarity,
		}
	}
	return matches, nil
}

func (r *KnowledgeEntryRepositoryImpl) DistinctCultivars(ctx context.Context) ([]string, error) {
	var cultivars []string
	err := r.db.WithContext(ctx).
		Model(&model.KnowledgeEntry{}).
		Where("active = ?", true).
		Distinct("cultivar").
		Order("cultivar").
		Pluck("cultivar", &cultivars).Error
	if err != nil {
		return nil, err
	}
	return cultivars, nil
}
