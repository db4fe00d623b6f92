package service

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/rediscache"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/advisor/classify"
	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/advisor/retrieve"
	"berry-advisory-be/pkg/embedding"
	"berry-advisory-be/pkg/events"
	pkgNats "berry-advisory-be/pkg/nats"

	"github.com/google/uuid"
)

type IKnowledgeService interface {
	Create(ctx context.Context, req *dto.CreateKnowledgeEntryRequest) (*dto.CreateKnowledgeEntryResponse, error)
	Update(ctx context.Context, req *dto.UpdateKnowledgeEntryRequest) (*dto.KnowledgeEntryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Show(ctx context.Context, id uuid.UUID) (*dto.KnowledgeEntryResponse, error)
	List(ctx context.Context, category, cultivarLabel string, limit, offset int) ([]*dto.KnowledgeEntryResponse, error)
	ListCultivars(ctx context.Context) (*dto.ListCultivarsResponse, error)
	// SearchPreview runs the tiered retrieval for a question so reviewers
	// can see what grounding the composer would receive.
	SearchPreview(ctx context.Context, req *dto.SearchKnowledgeRequest) (*dto.SearchKnowledgeResponse, error)
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	embeddingDim      int
	cultivarCache     *rediscache.CultivarCache
	eventPublisher    *pkgNats.Publisher
	retriever         *retrieve.Retriever
	logger            logger.ILogger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	embeddingDim int,
	cultivarCache *rediscache.CultivarCache,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		embeddingDim:      embeddingDim,
		cultivarCache:     cultivarCache,
		eventPublisher:    eventPublisher,
		retriever: retrieve.NewRetriever(
			&knowledgeSearchAdapter{uowFactory: uowFactory},
			&chunkSearchAdapter{uowFactory: uowFactory},
			retrieve.DefaultConfig(),
			stdlog.New(os.Stdout, "[RETRIEVE-PREVIEW] ", stdlog.LstdFlags),
		),
		logger: log,
	}
}

func (s *knowledgeService) Create(ctx context.Context, req *dto.CreateKnowledgeEntryRequest) (*dto.CreateKnowledgeEntryResponse, error) {
	category := classify.NormalizeCategory(req.Category)
	if category == classify.CategoryUndetermined {
		return nil, fmt.Errorf("unknown category: %s", req.Category)
	}
	label := cultivar.Normalize(req.Cultivar)
	if label == cultivar.Undetermined {
		return nil, fmt.Errorf("unknown cultivar label: %s", req.Cultivar)
	}

	vec, err := s.embedEntry(ctx, req.Question, req.Answer)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry := &entity.KnowledgeEntry{
		Id:        uuid.New(),
		Category:  category,
		Cultivar:  label,
		Question:  req.Question,
		Answer:    req.Answer,
		Embedding: vec,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := uow.KnowledgeEntryRepository().Create(ctx, entry); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	return &dto.CreateKnowledgeEntryResponse{Id: entry.Id}, nil
}

func (s *knowledgeService) Update(ctx context.Context, req *dto.UpdateKnowledgeEntryRequest) (*dto.KnowledgeEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry, err := uow.KnowledgeEntryRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("knowledge entry not found")
	}

	category := classify.NormalizeCategory(req.Category)
	if category == classify.CategoryUndetermined {
		return nil, fmt.Errorf("unknown category: %s", req.Category)
	}
	label := cultivar.Normalize(req.Cultivar)
	if label == cultivar.Undetermined {
		return nil, fmt.Errorf("unknown cultivar label: %s", req.Cultivar)
	}

	// Re-embed only when the searchable text changed.
	if entry.Question != req.Question || entry.Answer != req.Answer {
		vec, err := s.embedEntry(ctx, req.Question, req.Answer)
		if err != nil {
			return nil, err
		}
		entry.Embedding = vec
	}

	entry.Category = category
	entry.Cultivar = label
	entry.Question = req.Question
	entry.Answer = req.Answer
	if req.Active != nil {
		entry.Active = *req.Active
	}

	if err := uow.KnowledgeEntryRepository().Update(ctx, entry); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, entry)
	return toKnowledgeEntryResponse(entry), nil
}

func (s *knowledgeService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.KnowledgeEntryRepository().Delete(ctx, id); err != nil {
		return err
	}
	if s.cultivarCache != nil {
		s.cultivarCache.Invalidate(ctx)
	}
	return nil
}

func (s *knowledgeService) Show(ctx context.Context, id uuid.UUID) (*dto.KnowledgeEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry, err := uow.KnowledgeEntryRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("knowledge entry not found")
	}
	return toKnowledgeEntryResponse(entry), nil
}

func (s *knowledgeService) List(ctx context.Context, category, cultivarLabel string, limit, offset int) ([]*dto.KnowledgeEntryResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if category != "" {
		specs = append(specs, specification.ByCategory{Category: classify.NormalizeCategory(category)})
	}
	if cultivarLabel != "" {
		specs = append(specs, specification.ByCultivar{Cultivar: cultivar.Normalize(cultivarLabel)})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	entries, err := uow.KnowledgeEntryRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.KnowledgeEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = toKnowledgeEntryResponse(e)
	}
	return res, nil
}

func (s *knowledgeService) ListCultivars(ctx context.Context) (*dto.ListCultivarsResponse, error) {
	var (
		labels []string
		err    error
	)
	if s.cultivarCache != nil {
		labels, err = s.cultivarCache.ListCultivars(ctx)
	} else {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		labels, err = uow.KnowledgeEntryRepository().DistinctCultivars(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &dto.ListCultivarsResponse{Cultivars: labels}, nil
}

func (s *knowledgeService) SearchPreview(ctx context.Context, req *dto.SearchKnowledgeRequest) (*dto.SearchKnowledgeResponse, error) {
	category := ""
	if req.Category != "" {
		category = classify.NormalizeCategory(req.Category)
		if category == classify.CategoryUndetermined {
			return nil, fmt.Errorf("unknown category: %s", req.Category)
		}
	}
	label := ""
	if req.Cultivar != "" {
		label = cultivar.Normalize(req.Cultivar)
		if label == cultivar.Undetermined {
			return nil, fmt.Errorf("unknown cultivar label: %s", req.Cultivar)
		}
	}

	res, err := s.embeddingProvider.Generate(ctx, req.Question, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	vec := embedding.FitDimension(res.Values, s.embeddingDim)

	fragments := s.retriever.Retrieve(ctx, category, label, vec)
	out := make([]dto.SearchFragmentResponse, len(fragments))
	for i, f := range fragments {
		out[i] = dto.SearchFragmentResponse{
			Source:     f.Source,
			Tier:       f.Tier,
			RecordId:   f.RecordID,
			DocumentId: f.DocumentID,
			Category:   f.Category,
			Cultivar:   f.Cultivar,
			Question:   f.Question,
			Content:    f.Content,
			Similarity: f.Similarity,
		}
	}
	return &dto.SearchKnowledgeResponse{Fragments: out}, nil
}

// embedEntry vectorizes question and answer together so retrieval matches
// on either side of the pair.
func (s *knowledgeService) embedEntry(ctx context.Context, question, answer string) ([]float32, error) {
	res, err := s.embeddingProvider.Generate(ctx, question+"\n\n"+answer, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}
	return embedding.FitDimension(res.Values, s.embeddingDim), nil
}

func (s *knowledgeService) afterWrite(ctx context.Context, entry *entity.KnowledgeEntry) {
	if s.cultivarCache != nil {
		s.cultivarCache.Invalidate(ctx)
	}
	if s.eventPublisher != nil {
		evt := events.NewKnowledgeUpdatedEvent(entry.Id.String(), entry.Category, entry.Cultivar)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("KnowledgeService", "Failed to publish knowledge event", map[string]interface{}{"error": err.Error()})
		}
	}
}

func toKnowledgeEntryResponse(e *entity.KnowledgeEntry) *dto.KnowledgeEntryResponse {
	return &dto.KnowledgeEntryResponse{
		Id:        e.Id,
		Category:  e.Category,
		Cultivar:  e.Cultivar,
		Question:  e.Question,
		Answer:    e.Answer,
		Active:    e.Active,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
