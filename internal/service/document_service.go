package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/advisor/cultivar"

	"github.com/google/uuid"
)

type IDocumentService interface {
	// Upload stores the document and queues it for async chunking and
	// embedding. The response carries the pending status immediately.
	Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, limit, offset int) ([]*dto.DocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Reingest re-queues an existing document, replacing its chunks.
	Reingest(ctx context.Context, id uuid.UUID) (*dto.UploadDocumentResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *documentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	label := cultivar.Normalize(req.Cultivar)
	if label == cultivar.Undetermined {
		return nil, fmt.Errorf("unknown cultivar label: %s", req.Cultivar)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc := &entity.Document{
		Id:         uuid.New(),
		Title:      req.Title,
		SourceName: req.SourceName,
		Cultivar:   label,
		Content:    req.Content,
		Status:     entity.DocumentStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.queueIngestion(ctx, doc.Id); err != nil {
		return nil, err
	}

	return &dto.UploadDocumentResponse{Id: doc.Id, Status: string(doc.Status)}, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) List(ctx context.Context, limit, offset int) ([]*dto.DocumentResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, len(docs))
	for i, d := range docs {
		res[i] = toDocumentResponse(d)
	}
	return res, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *documentService) Reingest(ctx context.Context, id uuid.UUID) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}

	doc.Status = entity.DocumentStatusPending
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.queueIngestion(ctx, doc.Id); err != nil {
		return nil, err
	}
	return &dto.UploadDocumentResponse{Id: doc.Id, Status: string(doc.Status)}, nil
}

func (s *documentService) queueIngestion(ctx context.Context, documentId uuid.UUID) error {
	payload := dto.PublishIngestDocumentMessage{DocumentId: documentId}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return err
	}
	s.logger.Info("DocumentService", "Document queued for ingestion", map[string]interface{}{"document_id": documentId})
	return nil
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:         d.Id,
		Title:      d.Title,
		SourceName: d.SourceName,
		Cultivar:   d.Cultivar,
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
