package unitofwork

import (
	"context"

	"berry-advisory-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	TopicRepository() contract.TopicRepository
	ConsultationMessageRepository() contract.ConsultationMessageRepository
	ConsultationLogRepository() contract.ConsultationLogRepository

	KnowledgeEntryRepository() contract.KnowledgeEntryRepository
	DocumentRepository() contract.DocumentRepository
	DocumentChunkRepository() contract.DocumentChunkRepository

	TokenTransactionRepository() contract.TokenTransactionRepository
	ModerationItemRepository() contract.ModerationItemRepository
}
