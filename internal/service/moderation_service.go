package service

import (
	"context"
	"fmt"
	"time"

	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/rediscache"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/embedding"
	"berry-advisory-be/pkg/events"
	pkgNats "berry-advisory-be/pkg/nats"

	"github.com/google/uuid"
)

type IModerationService interface {
	// Submit queues a consultation Q&A pair for expert review. Called from
	// the consultation pipeline, failures must never surface to the user.
	Submit(ctx context.Context, item *entity.ModerationItem) error
	List(ctx context.Context, status string, limit, offset int) ([]*dto.ModerationItemResponse, error)
	// Approve promotes the pair into the curated knowledge base. The
	// reviewer may supply an edited answer.
	Approve(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error)
	Reject(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error)
}

type moderationService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	embeddingDim      int
	cultivarCache     *rediscache.CultivarCache
	eventPublisher    *pkgNats.Publisher
	logger            logger.ILogger
}

func NewModerationService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	embeddingDim int,
	cultivarCache *rediscache.CultivarCache,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IModerationService {
	return &moderationService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		embeddingDim:      embeddingDim,
		cultivarCache:     cultivarCache,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (s *moderationService) Submit(ctx context.Context, item *entity.ModerationItem) error {
	if item.Id == uuid.Nil {
		item.Id = uuid.New()
	}
	item.Status = entity.ModerationStatusPending
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ModerationItemRepository().Create(ctx, item); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.NewModerationSubmittedEvent(item.Id.String(), item.UserId.String())
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("ModerationService", "Failed to publish moderation event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (s *moderationService) List(ctx context.Context, status string, limit, offset int) ([]*dto.ModerationItemResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: limit, Offset: offset},
	}
	if status != "" {
		specs = append(specs, specification.ByStatus{Status: status})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	items, err := uow.ModerationItemRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ModerationItemResponse, len(items))
	for i, item := range items {
		res[i] = toModerationItemResponse(item)
	}
	return res, nil
}

func (s *moderationService) Approve(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := s.pendingItem(ctx, uow, req.Id)
	if err != nil {
		return nil, err
	}

	answer := item.ProposedAnswer
	if req.Answer != "" {
		answer = req.Answer
	}

	res, err := s.embeddingProvider.Generate(ctx, item.Question+"\n\n"+answer, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, err
	}

	entry := &entity.KnowledgeEntry{
		Id:        uuid.New(),
		Category:  item.Category,
		Cultivar:  item.Cultivar,
		Question:  item.Question,
		Answer:    answer,
		Embedding: embedding.FitDimension(res.Values, s.embeddingDim),
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.KnowledgeEntryRepository().Create(ctx, entry); err != nil {
		return nil, err
	}

	now := time.Now()
	item.Status = entity.ModerationStatusApproved
	item.ProposedAnswer = answer
	item.ReviewNote = req.ReviewNote
	item.ReviewedAt = &now
	if err := uow.ModerationItemRepository().Update(ctx, item); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if s.cultivarCache != nil {
		s.cultivarCache.Invalidate(ctx)
	}
	if s.eventPublisher != nil {
		evt := events.NewKnowledgeUpdatedEvent(entry.Id.String(), entry.Category, entry.Cultivar)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("ModerationService", "Failed to publish knowledge event", map[string]interface{}{"error": err.Error()})
		}
	}

	s.logger.Info("ModerationService", "Moderation item approved", map[string]interface{}{
		"item_id":  item.Id,
		"entry_id": entry.Id,
	})
	return toModerationItemResponse(item), nil
}

func (s *moderationService) Reject(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	item, err := s.pendingItem(ctx, uow, req.Id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.Status = entity.ModerationStatusRejected
	item.ReviewNote = req.ReviewNote
	item.ReviewedAt = &now
	if err := uow.ModerationItemRepository().Update(ctx, item); err != nil {
		return nil, err
	}
	return toModerationItemResponse(item), nil
}

func (s *moderationService) pendingItem(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.ModerationItem, error) {
	item, err := uow.ModerationItemRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("moderation item not found")
	}
	if item.Status != entity.ModerationStatusPending {
		return nil, fmt.Errorf("moderation item already reviewed")
	}
	return item, nil
}

func toModerationItemResponse(item *entity.ModerationItem) *dto.ModerationItemResponse {
	return &dto.ModerationItemResponse{
		Id:             item.Id,
		UserId:         item.UserId,
		TopicId:        item.TopicId,
		Category:       item.Category,
		Cultivar:       item.Cultivar,
		Question:       item.Question,
		ProposedAnswer: item.ProposedAnswer,
		Status:         string(item.Status),
		ReviewNote:     item.ReviewNote,
		ReviewedAt:     item.ReviewedAt,
		CreatedAt:      item.CreatedAt,
	}
}
