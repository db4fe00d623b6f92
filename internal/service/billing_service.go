package service

import (
	"context"
	"fmt"
	"time"

	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/events"
	pkgNats "berry-advisory-be/pkg/nats"

	"github.com/google/uuid"
)

// ErrInsufficientTokens is returned when a debit would push the balance
// below zero. Callers translate it into a user-facing refusal, never a 500.
var ErrInsufficientTokens = fmt.Errorf("insufficient token balance")

type IBillingService interface {
	// HasSufficient is the cheap pre-check before running the expensive
	// pipeline. The authoritative check happens inside Debit under lock.
	HasSufficient(ctx context.Context, userId uuid.UUID, amount int64) (bool, error)
	// Debit atomically charges the user. The row is locked FOR UPDATE for
	// the duration of the transaction so concurrent messages cannot double
	// spend.
	Debit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error)
	Credit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error)
	GetBalance(ctx context.Context, userId uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userId uuid.UUID) ([]*entity.TokenTransaction, error)
}

type billingService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pkgNats.Publisher
	logger         logger.ILogger
}

func NewBillingService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IBillingService {
	return &billingService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *billingService) HasSufficient(ctx context.Context, userId uuid.UUID, amount int64) (bool, error) {
	balance, err := s.GetBalance(ctx, userId)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

func (s *billingService) Debit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOneForUpdate(ctx, userId)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user not found")
	}

	if user.TokenBalance < amount {
		s.logger.Info("BillingService", "Debit refused", map[string]interface{}{
			"user_id":   userId,
			"amount":    amount,
			"balance":   user.TokenBalance,
			"reference": reference,
		})
		return user.TokenBalance, ErrInsufficientTokens
	}

	user.TokenBalance -= amount
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return 0, err
	}

	txn := &entity.TokenTransaction{
		Id:           uuid.New(),
		UserId:       userId,
		Operation:    entity.TokenOperationDebit,
		Amount:       amount,
		BalanceAfter: user.TokenBalance,
		Reference:    reference,
		CreatedAt:    time.Now(),
	}
	if err := uow.TokenTransactionRepository().Create(ctx, txn); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.publish(ctx, events.NewTokensDebitedEvent(userId.String(), amount, user.TokenBalance))
	return user.TokenBalance, nil
}

func (s *billingService) Credit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOneForUpdate(ctx, userId)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user not found")
	}

	user.TokenBalance += amount
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return 0, err
	}

	txn := &entity.TokenTransaction{
		Id:           uuid.New(),
		UserId:       userId,
		Operation:    entity.TokenOperationCredit,
		Amount:       amount,
		BalanceAfter: user.TokenBalance,
		Reference:    reference,
		CreatedAt:    time.Now(),
	}
	if err := uow.TokenTransactionRepository().Create(ctx, txn); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, err
	}

	s.publish(ctx, events.NewTokensCreditedEvent(userId.String(), amount, user.TokenBalance))
	return user.TokenBalance, nil
}

func (s *billingService) GetBalance(ctx context.Context, userId uuid.UUID) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user not found")
	}
	return user.TokenBalance, nil
}

func (s *billingService) ListTransactions(ctx context.Context, userId uuid.UUID) ([]*entity.TokenTransaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.TokenTransactionRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
}

func (s *billingService) publish(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("BillingService", "Failed to publish billing event", map[string]interface{}{"error": err.Error()})
	}
}
