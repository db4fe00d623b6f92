package service

import (
	"context"
	"fmt"
	"time"

	"berry-advisory-be/internal/constant"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	// GetOrCreate resolves an incoming external chat id to a user row,
	// creating one with the starting token balance on first contact.
	GetOrCreate(ctx context.Context, externalChatId, displayName string) (*entity.User, error)
	GetByExternalChatId(ctx context.Context, externalChatId string) (*entity.User, error)
	UpdateGrowingParameters(ctx context.Context, userId uuid.UUID, location, environment string) error
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IUserService {
	return &userService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *userService) GetOrCreate(ctx context.Context, externalChatId, displayName string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByExternalChatId{ExternalChatId: externalChatId})
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.Status == entity.UserStatusBlocked {
			return nil, fmt.Errorf("user is blocked")
		}
		return user, nil
	}

	user = &entity.User{
		Id:             uuid.New(),
		ExternalChatId: externalChatId,
		DisplayName:    displayName,
		Status:         entity.UserStatusActive,
		TokenBalance:   constant.InitialBalanceTokens,
		CreatedAt:      time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("UserService", "New user registered", map[string]interface{}{
		"user_id":          user.Id,
		"external_chat_id": externalChatId,
	})
	return user, nil
}

func (s *userService) GetByExternalChatId(ctx context.Context, externalChatId string) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByExternalChatId{ExternalChatId: externalChatId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (s *userService) UpdateGrowingParameters(ctx context.Context, userId uuid.UUID, location, environment string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if location != "" {
		user.Location = location
	}
	if environment != "" {
		user.GrowingEnvironment = environment
	}
	return uow.UserRepository().Update(ctx, user)
}
