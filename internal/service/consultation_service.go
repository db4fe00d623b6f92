package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"berry-advisory-be/internal/constant"
	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/memory"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/advisor/classify"
	"berry-advisory-be/pkg/advisor/compose"
	"berry-advisory-be/pkg/advisor/cultivar"
	"berry-advisory-be/pkg/advisor/dialog"
	"berry-advisory-be/pkg/advisor/retrieve"
	"berry-advisory-be/pkg/advisor/topicshift"
	"berry-advisory-be/pkg/embedding"
	"berry-advisory-be/pkg/events"
	"berry-advisory-be/pkg/llm"
	pkgNats "berry-advisory-be/pkg/nats"
	"berry-advisory-be/pkg/store"

	"github.com/google/uuid"
)

type IConsultationService interface {
	// HandleMessage runs one full turn of the conversation state machine
	// for an incoming user message.
	HandleMessage(ctx context.Context, req *dto.IncomingMessageRequest) (*dto.ConsultationReplyResponse, error)
	// NewTopic closes the user's open topic and resets the dialog state.
	NewTopic(ctx context.Context, req *dto.NewTopicRequest) (*dto.ConsultationReplyResponse, error)
	// BuyFollowUps debits a question pack and restores the follow-up quota
	// on the open topic.
	BuyFollowUps(ctx context.Context, req *dto.BuyFollowUpsRequest) (*dto.ConsultationReplyResponse, error)
	// RequestParameterReplacement puts the dialog into the state where the
	// next message is parsed as location/growing-environment text.
	RequestParameterReplacement(ctx context.Context, externalChatId string) (*dto.ConsultationReplyResponse, error)
	GetHistory(ctx context.Context, externalChatId string, limit, offset int) (*dto.ConsultationHistoryResponse, error)
	ListTopics(ctx context.Context, externalChatId string, limit, offset int) (*dto.TopicListResponse, error)
}

type consultationService struct {
	uowFactory        unitofwork.RepositoryFactory
	stateRepo         *memory.DialogStateRepository
	userService       IUserService
	billingService    IBillingService
	moderationService IModerationService

	classifier *classify.Classifier
	detector   *topicshift.Detector
	retriever  *retrieve.Retriever
	composer   *compose.Composer

	embeddingProvider embedding.EmbeddingProvider
	embeddingDim      int
	clarification     dialog.ClarificationHeuristic

	eventPublisher *pkgNats.Publisher
	logger         logger.ILogger
	llmLogger      *log.Logger
}

func NewConsultationService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.DialogStateRepository,
	userService IUserService,
	billingService IBillingService,
	moderationService IModerationService,
	llmProvider llm.LLMProvider,
	embeddingProvider embedding.EmbeddingProvider,
	embeddingDim int,
	cultivarSource classify.CultivarSource,
	eventPublisher *pkgNats.Publisher,
	appLogger logger.ILogger,
) IConsultationService {
	llmLogger := initAdvisoryLLMLogger()

	return &consultationService{
		uowFactory:        uowFactory,
		stateRepo:         stateRepo,
		userService:       userService,
		billingService:    billingService,
		moderationService: moderationService,

		classifier: classify.NewClassifier(llmProvider, cultivarSource, llmLogger),
		detector:   topicshift.NewDetector(llmProvider, llmLogger),
		retriever: retrieve.NewRetriever(
			&knowledgeSearchAdapter{uowFactory: uowFactory},
			&chunkSearchAdapter{uowFactory: uowFactory},
			retrieve.DefaultConfig(),
			llmLogger,
		),
		composer: compose.NewComposer(llmProvider, llmLogger),

		embeddingProvider: embeddingProvider,
		embeddingDim:      embeddingDim,
		clarification:     dialog.DefaultClarificationHeuristic(),

		eventPublisher: eventPublisher,
		logger:         appLogger,
		llmLogger:      llmLogger,
	}
}

func initAdvisoryLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_advisory.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-ADVISORY] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

// knowledgeSearchAdapter exposes the knowledge-entry repository to the
// retriever without binding pkg/advisor to the repository layer.
type knowledgeSearchAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func (a *knowledgeSearchAdapter) SearchSimilarEntries(ctx context.Context, category, cultivarLabel string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.KnowledgeMatch, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.KnowledgeEntryRepository().SearchSimilarEntries(ctx, category, cultivarLabel, embedding, limit, minSimilarity)
}

type chunkSearchAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func (a *chunkSearchAdapter) SearchSimilarChunks(ctx context.Context, cultivarLabel string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.ChunkMatch, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentChunkRepository().SearchSimilarChunks(ctx, cultivarLabel, embedding, limit, minSimilarity)
}

func (s *consultationService) HandleMessage(ctx context.Context, req *dto.IncomingMessageRequest) (*dto.ConsultationReplyResponse, error) {
	user, err := s.userService.GetOrCreate(ctx, req.ExternalChatId, req.DisplayName)
	if err != nil {
		return nil, err
	}

	// One turn per user at a time. Messages from other users are not
	// blocked by this lock.
	unlock := s.stateRepo.Lock(user.Id.String())
	defer unlock()

	state := s.stateRepo.GetOrCreate(user.Id.String())

	var reply string
	switch state.State {
	case store.StateAwaitingCultivarType:
		reply, err = s.handleCultivarTypeAnswer(ctx, user, state, req.Text)
	case store.StateAwaitingClarificationAns:
		reply, err = s.handleClarificationAnswer(ctx, user, state, req.Text)
	case store.StateAwaitingParamReplacement:
		reply, err = s.handleParameterReplacement(ctx, user, state, req.Text)
	default:
		reply, err = s.handleQuestion(ctx, user, state, req.Text)
	}
	if err != nil {
		return nil, err
	}

	s.stateRepo.Save(state)
	return s.buildReply(ctx, user, state, reply), nil
}

// handleQuestion processes a message arriving while no specific answer is
// expected: either a follow-up on the open topic or the root question of a
// new one.
func (s *consultationService) handleQuestion(ctx context.Context, user *entity.User, state *store.DialogState, text string) (string, error) {
	topic, err := s.openTopic(ctx, user.Id)
	if err != nil {
		return "", err
	}

	if topic != nil {
		outcome, usage := s.detector.Compare(ctx, topic.Cultivar, text, s.recentUserContext(ctx, user.Id))
		s.logOperation(ctx, user.Id, &topic.Id, constant.OperationTopicShift, map[string]interface{}{
			"outcome":          string(outcome),
			"current_cultivar": topic.Cultivar,
			"prompt_tokens":    usage.PromptTokens,
		})

		if outcome == topicshift.ClearChange {
			if err := s.closeTopic(ctx, user, topic, "topic_change"); err != nil {
				return "", err
			}
			state.ResetTopic()
			topic = nil
		} else {
			// SAME_TOPIC and UNCLEAR both stay on the open topic;
			// ambiguity must never spawn a new one.
			return s.handleFollowUp(ctx, user, state, topic, text)
		}
	}

	s.appendMessage(ctx, user.Id, nil, entity.DirectionUser, text)

	result, usage := s.classifier.Classify(ctx, text)
	s.logOperation(ctx, user.Id, nil, constant.OperationClassify, map[string]interface{}{
		"question":      truncateDetail(text),
		"category":      result.Category,
		"cultivar":      result.Cultivar,
		"prompt_tokens": usage.PromptTokens,
	})

	return s.handleClassifiedQuestion(ctx, user, state, text, result)
}

// handleClassifiedQuestion branches on the classification outcome: open
// clarification, fixed disambiguation, or the full billed answer pipeline.
func (s *consultationService) handleClassifiedQuestion(ctx context.Context, user *entity.User, state *store.DialogState, question string, result classify.Result) (string, error) {
	switch {
	case cultivar.NeedsTypeClarification(result.Cultivar):
		state.State = store.StateAwaitingCultivarType
		state.Category = result.Category
		state.Cultivar = result.Cultivar
		state.RootQuestion = question
		state.FullQuestion = question

		reply := dialog.DisambiguationQuestion(cultivar.FamilyOf(result.Cultivar))
		s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
		return reply, nil

	case !cultivar.IsSpecific(result.Cultivar):
		return s.handleVagueQuestion(ctx, user, state, question, result)

	default:
		return s.openTopicAndAnswer(ctx, user, state, question, result.Category, result.Cultivar)
	}
}

// handleVagueQuestion runs the composer without retrieval. If the model
// replies with a counter-question the state machine waits for the answer;
// otherwise the reply is terminal and nothing is billed.
func (s *consultationService) handleVagueQuestion(ctx context.Context, user *entity.User, state *store.DialogState, question string, result classify.Result) (string, error) {
	reply, usage, err := s.composer.Compose(ctx, compose.Request{
		Question:    question,
		History:     s.loadHistory(ctx, user.Id),
		Category:    result.Category,
		Cultivar:    result.Cultivar,
		Location:    s.location(user, state),
		Environment: s.environment(user, state),
	})
	if err != nil {
		s.logger.Error("ConsultationService", "Clarification compose failed", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
		reply = constant.ReplyServiceUnavailable
		s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
		return reply, nil
	}

	s.logOperation(ctx, user.Id, nil, constant.OperationClarify, map[string]interface{}{
		"question":          truncateDetail(question),
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
	})

	if s.clarification.IsClarifyingQuestion(reply) {
		state.State = store.StateAwaitingClarificationAns
		state.Category = result.Category
		state.Cultivar = result.Cultivar
		state.RootQuestion = question
		state.FullQuestion = question
	} else {
		state.ResetTopic()
	}

	s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
	return reply, nil
}

// openTopicAndAnswer is the paid path: debit, open the topic, run
// embed + retrieve + compose, deliver.
func (s *consultationService) openTopicAndAnswer(ctx context.Context, user *entity.User, state *store.DialogState, question, category, cultivarLabel string) (string, error) {
	balance, err := s.billingService.Debit(ctx, user.Id, constant.TopicCostTokens, constant.ReferenceTopicOpen)
	if err != nil {
		if errors.Is(err, ErrInsufficientTokens) {
			s.logOperation(ctx, user.Id, nil, constant.OperationBillingRefused, map[string]interface{}{
				"balance": balance,
				"cost":    constant.TopicCostTokens,
			})
			state.ResetTopic()
			reply := constant.ReplyInsufficientTokens
			s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
			return reply, nil
		}
		return "", err
	}
	user.TokenBalance = balance

	topic := &entity.Topic{
		Id:                    uuid.New(),
		UserId:                user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              category,
		Cultivar:              cultivarLabel,
		RootQuestion:          question,
		FollowUpQuestionsLeft: constant.DefaultFollowUpQuota,
		SessionId:             state.SessionID,
		CreatedAt:             time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TopicRepository().Create(ctx, topic); err != nil {
		return "", err
	}

	s.publish(ctx, events.NewTopicOpenedEvent(user.Id.String(), topic.Id.String(), category, cultivarLabel))
	s.logOperation(ctx, user.Id, &topic.Id, constant.OperationTopicOpened, map[string]interface{}{
		"category": category,
		"cultivar": cultivarLabel,
	})

	state.Category = category
	state.Cultivar = cultivarLabel
	state.RootQuestion = question
	state.FullQuestion = question
	state.TopicID = topic.Id.String()

	return s.answerAndDeliver(ctx, user, state, topic, question, false)
}

// handleFollowUp answers a continuation question on the open topic,
// consuming one unit of the follow-up quota on delivery.
func (s *consultationService) handleFollowUp(ctx context.Context, user *entity.User, state *store.DialogState, topic *entity.Topic, text string) (string, error) {
	s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionUser, text)

	if topic.FollowUpQuestionsLeft <= 0 {
		reply := constant.ReplyQuotaExhausted
		s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
		return reply, nil
	}

	state.Category = topic.Category
	state.Cultivar = topic.Cultivar
	state.TopicID = topic.Id.String()
	state.RootQuestion = text
	state.FullQuestion = text

	return s.answerAndDeliver(ctx, user, state, topic, text, true)
}

// answerAndDeliver runs embed + retrieve + compose for a topic-bound
// question. isFollowUp controls quota consumption.
func (s *consultationService) answerAndDeliver(ctx context.Context, user *entity.User, state *store.DialogState, topic *entity.Topic, question string, isFollowUp bool) (string, error) {
	vec, err := s.embedQuestion(ctx, question)
	var fragments []retrieve.Fragment
	if err != nil {
		// Retrieval degrades to an ungrounded answer rather than failing
		// the turn.
		s.logger.Warn("ConsultationService", "Question embedding failed", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
	} else {
		fragments = s.retriever.Retrieve(ctx, topic.Category, topic.Cultivar, vec)
	}

	s.logOperation(ctx, user.Id, &topic.Id, constant.OperationRetrieve, map[string]interface{}{
		"category":  topic.Category,
		"cultivar":  topic.Cultivar,
		"fragments": len(fragments),
	})

	reply, usage, err := s.composer.Compose(ctx, compose.Request{
		Question:    question,
		History:     s.loadHistory(ctx, user.Id),
		Fragments:   fragments,
		Category:    topic.Category,
		Cultivar:    topic.Cultivar,
		Location:    s.location(user, state),
		Environment: s.environment(user, state),
	})
	if err != nil {
		s.logger.Error("ConsultationService", "Answer compose failed", map[string]interface{}{
			"user_id":  user.Id,
			"topic_id": topic.Id,
			"error":    err.Error(),
		})
		reply = constant.ReplyServiceUnavailable
		s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
		return reply, nil
	}

	s.logOperation(ctx, user.Id, &topic.Id, constant.OperationCompose, map[string]interface{}{
		"question":          truncateDetail(question),
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"model":             usage.Model,
	})

	if s.clarification.IsClarifyingQuestion(reply) {
		// The model needs more detail before it can answer. Not a consumed
		// turn, the quota stays untouched.
		state.State = store.StateAwaitingClarificationAns
		s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
		return reply, nil
	}

	if isFollowUp {
		topic.FollowUpQuestionsLeft--
		if topic.FollowUpQuestionsLeft < 0 {
			topic.FollowUpQuestionsLeft = 0
		}
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.TopicRepository().Update(ctx, topic); err != nil {
			s.logger.Error("ConsultationService", "Failed to persist quota", map[string]interface{}{
				"topic_id": topic.Id,
				"error":    err.Error(),
			})
		}
	}

	s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
	s.publish(ctx, events.NewConsultationAnsweredEvent(user.Id.String(), topic.Id.String(), usage.PromptTokens, usage.CompletionTokens))

	if !compose.IsRejectionResponse(reply) {
		s.submitForModeration(ctx, user, topic, question, reply)
	}

	// Terminal answer: the flow is done, the open topic alone carries the
	// conversation forward.
	state.ResetTopic()
	return reply, nil
}

func (s *consultationService) handleCultivarTypeAnswer(ctx context.Context, user *entity.User, state *store.DialogState, answer string) (string, error) {
	if state.RootQuestion == "" || state.Cultivar == "" {
		return s.recoverLostContext(ctx, user, state)
	}

	s.appendMessage(ctx, user.Id, nil, entity.DirectionUser, answer)

	family := cultivar.FamilyOf(state.Cultivar)
	label, ok := dialog.MapCultivarTypeAnswer(family, answer)
	if !ok {
		// Keywords did not resolve it; let the classifier look at the
		// combined text before giving up.
		combined := state.RootQuestion + "\n" + answer
		result, _ := s.classifier.Classify(ctx, combined)
		if cultivar.IsSpecific(result.Cultivar) && cultivar.FamilyOf(result.Cultivar) == family {
			label = result.Cultivar
		} else {
			label = cultivar.GeneralLabel(state.Cultivar)
		}
	}

	category := state.Category
	question := state.RootQuestion
	state.State = store.StateIdle

	return s.openTopicAndAnswer(ctx, user, state, question, category, label)
}

func (s *consultationService) handleClarificationAnswer(ctx context.Context, user *entity.User, state *store.DialogState, answer string) (string, error) {
	if state.RootQuestion == "" {
		return s.recoverLostContext(ctx, user, state)
	}

	var topicId *uuid.UUID
	if id, err := uuid.Parse(state.TopicID); err == nil {
		topicId = &id
	}
	s.appendMessage(ctx, user.Id, topicId, entity.DirectionUser, answer)

	combined := state.FullQuestion + "\n" + answer
	state.FullQuestion = combined

	result, usage := s.classifier.Classify(ctx, combined)
	s.logOperation(ctx, user.Id, topicId, constant.OperationClassify, map[string]interface{}{
		"question":      truncateDetail(combined),
		"category":      result.Category,
		"cultivar":      result.Cultivar,
		"prompt_tokens": usage.PromptTokens,
	})

	// A clarification on an already-open topic stays on that topic: the
	// user already paid for it.
	if topicId != nil {
		topic, err := s.openTopic(ctx, user.Id)
		if err != nil {
			return "", err
		}
		if topic != nil && topic.Id == *topicId {
			state.State = store.StateIdle
			return s.answerAndDeliver(ctx, user, state, topic, combined, false)
		}
	}

	state.State = store.StateIdle
	return s.handleClassifiedQuestion(ctx, user, state, combined, result)
}

func (s *consultationService) handleParameterReplacement(ctx context.Context, user *entity.User, state *store.DialogState, text string) (string, error) {
	s.appendMessage(ctx, user.Id, nil, entity.DirectionUser, text)

	location, environment := dialog.ParseGrowingParameters(text)
	if location == "" && environment == "" {
		reply := "I could not recognize a region or growing environment. Please name one, for example: southern regions, greenhouse."
		s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
		return reply, nil
	}

	if location != "" {
		state.Location = location
	}
	if environment != "" {
		state.GrowingEnvironment = environment
	}
	if err := s.userService.UpdateGrowingParameters(ctx, user.Id, location, environment); err != nil {
		s.logger.Warn("ConsultationService", "Failed to persist growing parameters", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
	}

	state.State = store.StateIdle

	// With a question in flight the answer is rebuilt under the new
	// parameters; otherwise just confirm.
	if state.FullQuestion != "" {
		topic, err := s.openTopic(ctx, user.Id)
		if err != nil {
			return "", err
		}
		if topic != nil {
			return s.answerAndDeliver(ctx, user, state, topic, state.FullQuestion, false)
		}
	}

	reply := fmt.Sprintf("Noted. Your advice will now assume: %s, %s.", state.Location, state.GrowingEnvironment)
	s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
	return reply, nil
}

func (s *consultationService) NewTopic(ctx context.Context, req *dto.NewTopicRequest) (*dto.ConsultationReplyResponse, error) {
	user, err := s.userService.GetByExternalChatId(ctx, req.ExternalChatId)
	if err != nil {
		return nil, err
	}

	unlock := s.stateRepo.Lock(user.Id.String())
	defer unlock()
	state := s.stateRepo.GetOrCreate(user.Id.String())

	topic, err := s.openTopic(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	if topic != nil {
		if err := s.closeTopic(ctx, user, topic, "user_request"); err != nil {
			return nil, err
		}
	}

	state.ResetTopic()
	state.State = store.StateAwaitingRootQuestion
	s.stateRepo.Save(state)

	reply := "Previous topic closed. What berry question can I help you with?"
	s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
	return s.buildReply(ctx, user, state, reply), nil
}

func (s *consultationService) BuyFollowUps(ctx context.Context, req *dto.BuyFollowUpsRequest) (*dto.ConsultationReplyResponse, error) {
	user, err := s.userService.GetByExternalChatId(ctx, req.ExternalChatId)
	if err != nil {
		return nil, err
	}

	unlock := s.stateRepo.Lock(user.Id.String())
	defer unlock()
	state := s.stateRepo.GetOrCreate(user.Id.String())

	topic, err := s.openTopic(ctx, user.Id)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		reply := "You have no open topic. Ask a new question first."
		return s.buildReply(ctx, user, state, reply), nil
	}

	balance, err := s.billingService.Debit(ctx, user.Id, constant.FollowUpPackCost, constant.ReferenceFollowUpPack)
	if err != nil {
		if errors.Is(err, ErrInsufficientTokens) {
			reply := constant.ReplyInsufficientTokens
			s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
			return s.buildReply(ctx, user, state, reply), nil
		}
		return nil, err
	}
	user.TokenBalance = balance

	topic.FollowUpQuestionsLeft = constant.DefaultFollowUpQuota
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TopicRepository().Update(ctx, topic); err != nil {
		return nil, err
	}

	reply := fmt.Sprintf("Question pack purchased. You have %d follow-up questions on this topic.", topic.FollowUpQuestionsLeft)
	s.appendMessage(ctx, user.Id, &topic.Id, entity.DirectionBot, reply)
	return s.buildReply(ctx, user, state, reply), nil
}

func (s *consultationService) RequestParameterReplacement(ctx context.Context, externalChatId string) (*dto.ConsultationReplyResponse, error) {
	user, err := s.userService.GetByExternalChatId(ctx, externalChatId)
	if err != nil {
		return nil, err
	}

	unlock := s.stateRepo.Lock(user.Id.String())
	defer unlock()
	state := s.stateRepo.GetOrCreate(user.Id.String())

	state.State = store.StateAwaitingParamReplacement
	s.stateRepo.Save(state)

	reply := "Where do you grow your plants? Name your region (middle band, southern, northern, Ural-Siberia, Far East) and environment (open field, greenhouse, container, covered ground)."
	s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
	return s.buildReply(ctx, user, state, reply), nil
}

func (s *consultationService) GetHistory(ctx context.Context, externalChatId string, limit, offset int) (*dto.ConsultationHistoryResponse, error) {
	user, err := s.userService.GetByExternalChatId(ctx, externalChatId)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ConsultationMessageRepository().FindAll(ctx,
		specification.OwnedBy{UserID: user.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ConsultationHistoryItem, len(messages))
	for i, m := range messages {
		items[i] = dto.ConsultationHistoryItem{
			Id:        m.Id,
			TopicId:   m.TopicId,
			Direction: string(m.Direction),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}
	}
	return &dto.ConsultationHistoryResponse{UserId: user.Id, Messages: items}, nil
}

func (s *consultationService) ListTopics(ctx context.Context, externalChatId string, limit, offset int) (*dto.TopicListResponse, error) {
	user, err := s.userService.GetByExternalChatId(ctx, externalChatId)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	topics, err := uow.TopicRepository().FindAll(ctx,
		specification.OwnedBy{UserID: user.Id},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TopicResponse, len(topics))
	for i, t := range topics {
		items[i] = dto.TopicResponse{
			Id:                    t.Id,
			Status:                string(t.Status),
			Category:              t.Category,
			Cultivar:              t.Cultivar,
			RootQuestion:          t.RootQuestion,
			FollowUpQuestionsLeft: t.FollowUpQuestionsLeft,
			ClosedAt:              t.ClosedAt,
			CreatedAt:             t.CreatedAt,
		}
	}
	return &dto.TopicListResponse{UserId: user.Id, Topics: items}, nil
}

// --- helpers ---

func (s *consultationService) recoverLostContext(ctx context.Context, user *entity.User, state *store.DialogState) (string, error) {
	s.logger.Warn("ConsultationService", "Dialog context lost, resetting", map[string]interface{}{
		"user_id": user.Id,
		"state":   state.State,
	})
	state.ResetTopic()
	reply := constant.ReplyContextLost
	s.appendMessage(ctx, user.Id, nil, entity.DirectionBot, reply)
	return reply, nil
}

func (s *consultationService) openTopic(ctx context.Context, userId uuid.UUID) (*entity.Topic, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.TopicRepository().FindOne(ctx,
		specification.OwnedBy{UserID: userId},
		specification.ByStatus{Status: string(entity.TopicStatusOpen)},
	)
}

func (s *consultationService) closeTopic(ctx context.Context, user *entity.User, topic *entity.Topic, reason string) error {
	now := time.Now()
	topic.Status = entity.TopicStatusClosed
	topic.ClosedAt = &now

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TopicRepository().Update(ctx, topic); err != nil {
		return err
	}

	s.publish(ctx, events.NewTopicClosedEvent(user.Id.String(), topic.Id.String(), reason))
	s.logOperation(ctx, user.Id, &topic.Id, constant.OperationTopicClosed, map[string]interface{}{
		"reason": reason,
	})
	return nil
}

func (s *consultationService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < embedMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			}
		}
		res, err := s.embeddingProvider.Generate(ctx, question, "RETRIEVAL_QUERY")
		if err == nil {
			return embedding.FitDimension(res.Values, s.embeddingDim), nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// recentUserContext returns the user's last few questions, oldest first,
// as context for the topic-change decision.
func (s *consultationService) recentUserContext(ctx context.Context, userId uuid.UUID) []string {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ConsultationMessageRepository().FindRecentByUser(ctx, userId, entity.DirectionUser, 3)
	if err != nil {
		s.logger.Warn("ConsultationService", "Failed to load recent context", map[string]interface{}{"error": err.Error()})
		return nil
	}
	texts := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		texts = append(texts, messages[i].Text)
	}
	return texts
}

// loadHistory converts the recent message log into chat turns for the
// composer, oldest first.
func (s *consultationService) loadHistory(ctx context.Context, userId uuid.UUID) []llm.Message {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ConsultationMessageRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 7, Offset: 0},
	)
	if err != nil {
		s.logger.Warn("ConsultationService", "Failed to load history", map[string]interface{}{"error": err.Error()})
		return nil
	}

	// The in-flight user message is logged before composing; it reaches the
	// model as the question itself, not as a history turn.
	if len(messages) > 0 && messages[0].Direction == entity.DirectionUser {
		messages = messages[1:]
	}
	if len(messages) > 6 {
		messages = messages[:6]
	}

	history := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		role := "user"
		if messages[i].Direction == entity.DirectionBot {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: messages[i].Text})
	}
	return history
}

func (s *consultationService) appendMessage(ctx context.Context, userId uuid.UUID, topicId *uuid.UUID, direction entity.MessageDirection, text string) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	msg := &entity.ConsultationMessage{
		Id:        uuid.New(),
		UserId:    userId,
		TopicId:   topicId,
		Direction: direction,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := uow.ConsultationMessageRepository().Create(ctx, msg); err != nil {
		s.logger.Error("ConsultationService", "Failed to append message", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
	}
}

func (s *consultationService) logOperation(ctx context.Context, userId uuid.UUID, topicId *uuid.UUID, operation string, details map[string]interface{}) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	entry := &entity.ConsultationLog{
		Id:        uuid.New(),
		UserId:    userId,
		TopicId:   topicId,
		Operation: operation,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if err := uow.ConsultationLogRepository().Create(ctx, entry); err != nil {
		s.logger.Warn("ConsultationService", "Failed to write consultation log", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
	}
}

// submitForModeration queues the Q&A pair for expert review. Failures are
// logged and never reach the user.
func (s *consultationService) submitForModeration(ctx context.Context, user *entity.User, topic *entity.Topic, question, answer string) {
	item := &entity.ModerationItem{
		UserId:         user.Id,
		TopicId:        &topic.Id,
		Category:       topic.Category,
		Cultivar:       topic.Cultivar,
		Question:       question,
		ProposedAnswer: answer,
	}
	if err := s.moderationService.Submit(ctx, item); err != nil {
		s.logger.Warn("ConsultationService", "Moderation submit failed", map[string]interface{}{
			"topic_id": topic.Id,
			"error":    err.Error(),
		})
		return
	}
	s.logOperation(ctx, user.Id, &topic.Id, constant.OperationModerationSubmit, map[string]interface{}{
		"item_question": truncateDetail(question),
	})
}

func (s *consultationService) publish(ctx context.Context, evt events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("ConsultationService", "Failed to publish event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *consultationService) buildReply(ctx context.Context, user *entity.User, state *store.DialogState, reply string) *dto.ConsultationReplyResponse {
	res := &dto.ConsultationReplyResponse{
		UserId:       user.Id,
		Reply:        reply,
		State:        state.State,
		Category:     state.Category,
		Cultivar:     state.Cultivar,
		TokenBalance: user.TokenBalance,
	}
	if topic, err := s.openTopic(ctx, user.Id); err == nil && topic != nil {
		res.TopicId = &topic.Id
		res.FollowUpQuestionsLeft = topic.FollowUpQuestionsLeft
	}
	return res
}

func (s *consultationService) location(user *entity.User, state *store.DialogState) string {
	if state.Location != "" {
		return state.Location
	}
	if user.Location != "" {
		return user.Location
	}
	return store.DefaultLocation
}

func (s *consultationService) environment(user *entity.User, state *store.DialogState) string {
	if state.GrowingEnvironment != "" {
		return state.GrowingEnvironment
	}
	if user.GrowingEnvironment != "" {
		return user.GrowingEnvironment
	}
	return store.DefaultGrowingEnvironment
}

func truncateDetail(s string) string {
	const max = 300
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
