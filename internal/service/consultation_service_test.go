package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"berry-advisory-be/internal/constant"
	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/entity"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/contract"
	"berry-advisory-be/internal/repository/memory"
	"berry-advisory-be/internal/repository/specification"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/pkg/advisor/classify"
	"berry-advisory-be/pkg/advisor/compose"
	"berry-advisory-be/pkg/advisor/dialog"
	"berry-advisory-be/pkg/advisor/retrieve"
	"berry-advisory-be/pkg/advisor/topicshift"
	"berry-advisory-be/pkg/embedding"
	"berry-advisory-be/pkg/llm"
	"berry-advisory-be/pkg/store"

	"github.com/google/uuid"
)

// --- fakes ---

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
func (noopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (noopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

// fakeLLM routes prompts by the role text baked into each component's
// prompt, so one provider serves the classifier, the detector and the
// composer at once.
type fakeLLM struct {
	classifyResponse string
	shiftResponse    string
	chatResponse     string
	chatErr          error

	chatCalls [][]llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, llm.Usage, error) {
	switch {
	case strings.Contains(prompt, "You only classify it"):
		return f.classifyResponse, llm.Usage{PromptTokens: 10}, nil
	case strings.Contains(prompt, "You only compare topics"):
		return f.shiftResponse, llm.Usage{PromptTokens: 10}, nil
	}
	return f.chatResponse, llm.Usage{PromptTokens: 10}, f.chatErr
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, llm.Usage, error) {
	f.chatCalls = append(f.chatCalls, history)
	return f.chatResponse, llm.Usage{PromptTokens: 20, CompletionTokens: 30}, f.chatErr
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Values: make([]float32, 8)}, nil
}

type fakeTopicRepo struct {
	topics []*entity.Topic
}

func (r *fakeTopicRepo) Create(ctx context.Context, topic *entity.Topic) error {
	r.topics = append(r.topics, topic)
	return nil
}

func (r *fakeTopicRepo) Update(ctx context.Context, topic *entity.Topic) error {
	for i, t := range r.topics {
		if t.Id == topic.Id {
			r.topics[i] = topic
		}
	}
	return nil
}

func (r *fakeTopicRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeTopicRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	// The service only ever looks up the user's single open topic.
	for _, t := range r.topics {
		if t.Status == entity.TopicStatusOpen {
			return t, nil
		}
	}
	return nil, nil
}

func (r *fakeTopicRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	return r.topics, nil
}

func (r *fakeTopicRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.topics)), nil
}

func (r *fakeTopicRepo) open() *entity.Topic {
	for _, t := range r.topics {
		if t.Status == entity.TopicStatusOpen {
			return t
		}
	}
	return nil
}

type fakeMessageRepo struct {
	messages []*entity.ConsultationMessage
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ConsultationMessage) error {
	r.messages = append(r.messages, message)
	return nil
}

// FindAll returns newest first, matching how the service queries the log.
func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationMessage, error) {
	out := make([]*entity.ConsultationMessage, len(r.messages))
	for i, m := range r.messages {
		out[len(r.messages)-1-i] = m
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.messages)), nil
}

func (r *fakeMessageRepo) FindRecentByUser(ctx context.Context, userId uuid.UUID, direction entity.MessageDirection, limit int) ([]*entity.ConsultationMessage, error) {
	var out []*entity.ConsultationMessage
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if r.messages[i].Direction == direction {
			out = append(out, r.messages[i])
		}
	}
	return out, nil
}

type fakeLogRepo struct {
	entries []*entity.ConsultationLog
}

func (r *fakeLogRepo) Create(ctx context.Context, entry *entity.ConsultationLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConsultationLog, error) {
	return r.entries, nil
}

func (r *fakeLogRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeLogRepo) has(operation string) bool {
	for _, e := range r.entries {
		if e.Operation == operation {
			return true
		}
	}
	return false
}

type fakeKnowledgeRepo struct {
	matches []retrieve.KnowledgeMatch
}

func (r *fakeKnowledgeRepo) Create(ctx context.Context, entry *entity.KnowledgeEntry) error { return nil }
func (r *fakeKnowledgeRepo) Update(ctx context.Context, entry *entity.KnowledgeEntry) error { return nil }
func (r *fakeKnowledgeRepo) Delete(ctx context.Context, id uuid.UUID) error                 { return nil }
func (r *fakeKnowledgeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEntry, error) {
	return nil, nil
}
func (r *fakeKnowledgeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEntry, error) {
	return nil, nil
}
func (r *fakeKnowledgeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (r *fakeKnowledgeRepo) SearchSimilarEntries(ctx context.Context, category, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.KnowledgeMatch, error) {
	return r.matches, nil
}
func (r *fakeKnowledgeRepo) DistinctCultivars(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeChunkRepo struct{}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (r *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (r *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (r *fakeChunkRepo) SearchSimilarChunks(ctx context.Context, cultivar string, embedding []float32, limit int, minSimilarity float64) ([]retrieve.ChunkMatch, error) {
	return nil, nil
}

type fakeUow struct {
	topics    *fakeTopicRepo
	messages  *fakeMessageRepo
	logs      *fakeLogRepo
	knowledge *fakeKnowledgeRepo
	chunks    *fakeChunkRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository   { return nil }
func (u *fakeUow) TopicRepository() contract.TopicRepository { return u.topics }
func (u *fakeUow) ConsultationMessageRepository() contract.ConsultationMessageRepository {
	return u.messages
}
func (u *fakeUow) ConsultationLogRepository() contract.ConsultationLogRepository { return u.logs }
func (u *fakeUow) KnowledgeEntryRepository() contract.KnowledgeEntryRepository   { return u.knowledge }
func (u *fakeUow) DocumentRepository() contract.DocumentRepository               { return nil }
func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository     { return u.chunks }
func (u *fakeUow) TokenTransactionRepository() contract.TokenTransactionRepository {
	return nil
}
func (u *fakeUow) ModerationItemRepository() contract.ModerationItemRepository { return nil }

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeUserService struct {
	user *entity.User
}

func (f *fakeUserService) GetOrCreate(ctx context.Context, externalChatId, displayName string) (*entity.User, error) {
	return f.user, nil
}
func (f *fakeUserService) GetByExternalChatId(ctx context.Context, externalChatId string) (*entity.User, error) {
	return f.user, nil
}
func (f *fakeUserService) UpdateGrowingParameters(ctx context.Context, userId uuid.UUID, location, environment string) error {
	return nil
}

type fakeBillingService struct {
	balance      int64
	insufficient bool
	debits       []int64
}

func (f *fakeBillingService) HasSufficient(ctx context.Context, userId uuid.UUID, amount int64) (bool, error) {
	return !f.insufficient, nil
}
func (f *fakeBillingService) Debit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error) {
	if f.insufficient {
		return f.balance, ErrInsufficientTokens
	}
	f.balance -= amount
	f.debits = append(f.debits, amount)
	return f.balance, nil
}
func (f *fakeBillingService) Credit(ctx context.Context, userId uuid.UUID, amount int64, reference string) (int64, error) {
	f.balance += amount
	return f.balance, nil
}
func (f *fakeBillingService) GetBalance(ctx context.Context, userId uuid.UUID) (int64, error) {
	return f.balance, nil
}
func (f *fakeBillingService) ListTransactions(ctx context.Context, userId uuid.UUID) ([]*entity.TokenTransaction, error) {
	return nil, nil
}

type fakeModerationService struct {
	submitted []*entity.ModerationItem
}

func (f *fakeModerationService) Submit(ctx context.Context, item *entity.ModerationItem) error {
	f.submitted = append(f.submitted, item)
	return nil
}
func (f *fakeModerationService) List(ctx context.Context, status string, limit, offset int) ([]*dto.ModerationItemResponse, error) {
	return nil, nil
}
func (f *fakeModerationService) Approve(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error) {
	return nil, nil
}
func (f *fakeModerationService) Reject(ctx context.Context, req *dto.ReviewModerationRequest) (*dto.ModerationItemResponse, error) {
	return nil, nil
}

// --- harness ---

type harness struct {
	svc        *consultationService
	llmFake    *fakeLLM
	topics     *fakeTopicRepo
	messages   *fakeMessageRepo
	logs       *fakeLogRepo
	billing    *fakeBillingService
	moderation *fakeModerationService
	user       *entity.User
}

func newHarness(t *testing.T, llmFake *fakeLLM) *harness {
	t.Helper()

	uow := &fakeUow{
		topics:    &fakeTopicRepo{},
		messages:  &fakeMessageRepo{},
		logs:      &fakeLogRepo{},
		knowledge: &fakeKnowledgeRepo{},
		chunks:    &fakeChunkRepo{},
	}
	factory := &fakeFactory{uow: uow}

	user := &entity.User{
		Id:             uuid.New(),
		ExternalChatId: "chat-1",
		Status:         entity.UserStatusActive,
		TokenBalance:   5,
	}
	billing := &fakeBillingService{balance: user.TokenBalance}
	moderation := &fakeModerationService{}

	llmLogger := log.New(io.Discard, "", 0)

	svc := &consultationService{
		uowFactory:        factory,
		stateRepo:         memory.NewDialogStateRepository(),
		userService:       &fakeUserService{user: user},
		billingService:    billing,
		moderationService: moderation,

		classifier: classify.NewClassifier(llmFake, nil, llmLogger),
		detector:   topicshift.NewDetector(llmFake, llmLogger),
		retriever: retrieve.NewRetriever(
			&knowledgeSearchAdapter{uowFactory: factory},
			&chunkSearchAdapter{uowFactory: factory},
			retrieve.DefaultConfig(),
			llmLogger,
		),
		composer: compose.NewComposer(llmFake, llmLogger),

		embeddingProvider: &fakeEmbedder{},
		embeddingDim:      8,
		clarification:     dialog.DefaultClarificationHeuristic(),

		logger: noopLogger{},
	}

	return &harness{
		svc:        svc,
		llmFake:    llmFake,
		topics:     uow.topics,
		messages:   uow.messages,
		logs:       uow.logs,
		billing:    billing,
		moderation: moderation,
		user:       user,
	}
}

func newIncoming(text string) *dto.IncomingMessageRequest {
	return &dto.IncomingMessageRequest{
		ExternalChatId: "chat-1",
		DisplayName:    "Test Gardener",
		Text:           text,
	}
}

var errTestUpstream = errors.New("model backend unavailable")

// --- tests ---

const terseAnswer = "Feed currants with 20 g of balanced NPK per square meter after harvest and mulch with compost in autumn. That keeps the bush productive without pushing soft growth."

func TestSpecificQuestionOpensTopicAndDebits(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "currant"}`,
		chatResponse:     terseAnswer,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("How do I feed my currant bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.Reply != terseAnswer {
		t.Errorf("reply = %q, want the composed answer", res.Reply)
	}
	if len(h.billing.debits) != 1 || h.billing.debits[0] != constant.TopicCostTokens {
		t.Errorf("debits = %v, want exactly one of %d", h.billing.debits, constant.TopicCostTokens)
	}
	if res.TokenBalance != 5-constant.TopicCostTokens {
		t.Errorf("TokenBalance = %d, want %d", res.TokenBalance, 5-constant.TopicCostTokens)
	}

	topic := h.topics.open()
	if topic == nil {
		t.Fatal("expected an open topic after the answer")
	}
	if topic.Cultivar != "currant" || topic.Category != "nutrition" {
		t.Errorf("topic classified as (%s, %s)", topic.Category, topic.Cultivar)
	}
	if topic.FollowUpQuestionsLeft != constant.DefaultFollowUpQuota {
		t.Errorf("quota = %d, want %d", topic.FollowUpQuestionsLeft, constant.DefaultFollowUpQuota)
	}

	if len(h.moderation.submitted) != 1 {
		t.Errorf("moderation submissions = %d, want 1", len(h.moderation.submitted))
	}
	if res.State != store.StateIdle {
		t.Errorf("state after terminal answer = %s, want IDLE", res.State)
	}
}

func TestComposeHistoryExcludesCurrentQuestion(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "currant"}`,
		chatResponse:     terseAnswer,
	})

	question := "How do I feed my currant bushes"
	if _, err := h.svc.HandleMessage(context.Background(), newIncoming(question)); err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(h.llmFake.chatCalls) != 1 {
		t.Fatalf("composer chat calls = %d, want 1", len(h.llmFake.chatCalls))
	}

	// The message log already holds the in-flight question; it must reach
	// the model once, as the final user turn, not again as history.
	messages := h.llmFake.chatCalls[0]
	if last := messages[len(messages)-1]; last.Role != "user" || last.Content != question {
		t.Fatalf("final chat turn = (%s, %q), want the user question", last.Role, last.Content)
	}
	count := 0
	for _, m := range messages {
		if m.Content == question {
			count++
		}
	}
	if count != 1 {
		t.Errorf("question appears %d times in the chat payload, want exactly once", count)
	}
}

func TestInsufficientTokensRefusesWithoutOpeningTopic(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "currant"}`,
		chatResponse:     terseAnswer,
	})
	h.billing.insufficient = true

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("How do I feed my currant bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.Reply != constant.ReplyInsufficientTokens {
		t.Errorf("reply = %q, want the insufficient-tokens message", res.Reply)
	}
	if h.topics.open() != nil {
		t.Error("no topic may open when billing refuses")
	}
	if len(h.moderation.submitted) != 0 {
		t.Error("refused turns must not reach moderation")
	}
	if !h.logs.has(constant.OperationBillingRefused) {
		t.Error("expected a billing_refused log entry")
	}
}

func TestDisambiguationFlowResolvesBearingType(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "strawberry, general"}`,
		chatResponse:     terseAnswer,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("When should I feed my strawberries"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.State != store.StateAwaitingCultivarType {
		t.Fatalf("state = %s, want AWAITING_CULTIVAR_TYPE", res.State)
	}
	if !strings.Contains(res.Reply, "strawberries") {
		t.Errorf("disambiguation question should name the plant, got %q", res.Reply)
	}
	if len(h.billing.debits) != 0 {
		t.Error("the disambiguation turn must not be billed")
	}

	res, err = h.svc.HandleMessage(context.Background(), newIncoming("remontant"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	topic := h.topics.open()
	if topic == nil {
		t.Fatal("expected an open topic after the bearing type was resolved")
	}
	if topic.Cultivar != "strawberry, remontant" {
		t.Errorf("topic cultivar = %q, want %q", topic.Cultivar, "strawberry, remontant")
	}
	if topic.RootQuestion != "When should I feed my strawberries" {
		t.Errorf("root question = %q, want the original question", topic.RootQuestion)
	}
	if len(h.billing.debits) != 1 {
		t.Errorf("debits = %v, want exactly one after the topic opened", h.billing.debits)
	}
	if res.Reply != terseAnswer {
		t.Errorf("reply = %q, want the composed answer", res.Reply)
	}
}

func TestFollowUpConsumesQuotaAndStopsAtZero(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		shiftResponse: "SAME",
		chatResponse:  terseAnswer,
	})
	h.topics.topics = append(h.topics.topics, &entity.Topic{
		Id:                    uuid.New(),
		UserId:                h.user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              "nutrition",
		Cultivar:              "currant",
		RootQuestion:          "How do I feed my currant bushes",
		FollowUpQuestionsLeft: 1,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("And how often should I water them"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}
	if res.Reply != terseAnswer {
		t.Errorf("reply = %q, want the composed answer", res.Reply)
	}
	if got := h.topics.open().FollowUpQuestionsLeft; got != 0 {
		t.Errorf("quota after follow-up = %d, want 0", got)
	}
	if len(h.billing.debits) != 0 {
		t.Error("follow-ups within quota must not be billed")
	}

	res, err = h.svc.HandleMessage(context.Background(), newIncoming("What about mulching"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}
	if res.Reply != constant.ReplyQuotaExhausted {
		t.Errorf("reply = %q, want the quota-exhausted message", res.Reply)
	}
	if got := h.topics.open().FollowUpQuestionsLeft; got != 0 {
		t.Errorf("quota must never go negative, got %d", got)
	}
}

func TestUnclearVerdictStaysOnOpenTopic(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		shiftResponse: "UNCLEAR",
		chatResponse:  terseAnswer,
	})
	h.topics.topics = append(h.topics.topics, &entity.Topic{
		Id:                    uuid.New(),
		UserId:                h.user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              "nutrition",
		Cultivar:              "currant",
		FollowUpQuestionsLeft: 3,
	})

	_, err := h.svc.HandleMessage(context.Background(), newIncoming("And what about the leaves"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(h.topics.topics) != 1 {
		t.Fatalf("ambiguity spawned a topic: %d topics", len(h.topics.topics))
	}
	if h.topics.open() == nil {
		t.Error("the open topic must survive an UNCLEAR verdict")
	}
	if len(h.billing.debits) != 0 {
		t.Error("an UNCLEAR verdict must not trigger billing")
	}
}

func TestTopicChangeClosesOldAndBillsNew(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "planting and care", "cultivar": "blueberry"}`,
		shiftResponse:    "CHANGE",
		chatResponse:     terseAnswer,
	})
	oldId := uuid.New()
	h.topics.topics = append(h.topics.topics, &entity.Topic{
		Id:                    oldId,
		UserId:                h.user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              "nutrition",
		Cultivar:              "currant",
		FollowUpQuestionsLeft: 2,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("How deep should I plant blueberry bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	var old *entity.Topic
	for _, topic := range h.topics.topics {
		if topic.Id == oldId {
			old = topic
		}
	}
	if old == nil || old.Status != entity.TopicStatusClosed {
		t.Error("the previous topic must be closed on a clear change")
	}
	if old != nil && old.ClosedAt == nil {
		t.Error("closed topic must carry a ClosedAt timestamp")
	}

	opened := h.topics.open()
	if opened == nil {
		t.Fatal("expected a new open topic for the new plant")
	}
	if opened.Cultivar != "blueberry" {
		t.Errorf("new topic cultivar = %q, want blueberry", opened.Cultivar)
	}
	if len(h.billing.debits) != 1 {
		t.Errorf("debits = %v, want exactly one for the new topic", h.billing.debits)
	}
	if res.Reply != terseAnswer {
		t.Errorf("reply = %q, want the composed answer", res.Reply)
	}
}

func TestVagueQuestionIsNotBilled(t *testing.T) {
	clarify := "Which berry plant are you asking about? Please name it so I can advise precisely."
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "general information"}`,
		chatResponse:     clarify,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("My plants look weak, what should I do"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.Reply != clarify {
		t.Errorf("reply = %q, want the counter-question", res.Reply)
	}
	if res.State != store.StateAwaitingClarificationAns {
		t.Errorf("state = %s, want AWAITING_CLARIFICATION_ANSWER", res.State)
	}
	if len(h.billing.debits) != 0 {
		t.Error("clarification turns must not be billed")
	}
	if h.topics.open() != nil {
		t.Error("no topic may open before the question is specific")
	}
}

func TestClarificationAnswerOpensTopicOnce(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "general information"}`,
		chatResponse:     "Which berry plant are you asking about? Please name it.",
	})

	_, err := h.svc.HandleMessage(context.Background(), newIncoming("My plants look weak, what should I do"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	// The answer makes the question specific; the next classification and
	// compose run against it.
	h.llmFake.classifyResponse = `{"category": "nutrition", "cultivar": "gooseberry"}`
	h.llmFake.chatResponse = terseAnswer

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("They are gooseberry bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.Reply != terseAnswer {
		t.Errorf("reply = %q, want the composed answer", res.Reply)
	}
	topic := h.topics.open()
	if topic == nil {
		t.Fatal("expected an open topic after the clarified question")
	}
	if topic.Cultivar != "gooseberry" {
		t.Errorf("topic cultivar = %q, want gooseberry", topic.Cultivar)
	}
	if !strings.Contains(topic.RootQuestion, "gooseberry") {
		t.Errorf("root question should carry the accumulated text, got %q", topic.RootQuestion)
	}
	if len(h.billing.debits) != 1 {
		t.Errorf("debits = %v, want exactly one", h.billing.debits)
	}
}

func TestComposeFailureDegradesGracefully(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "currant"}`,
		chatErr:          errTestUpstream,
	})

	res, err := h.svc.HandleMessage(context.Background(), newIncoming("How do I feed my currant bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if res.Reply != constant.ReplyServiceUnavailable {
		t.Errorf("reply = %q, want the service-unavailable message", res.Reply)
	}
	if len(h.moderation.submitted) != 0 {
		t.Error("failed answers must not reach moderation")
	}
}

func TestBuyFollowUpsRestoresQuota(t *testing.T) {
	h := newHarness(t, &fakeLLM{})
	h.topics.topics = append(h.topics.topics, &entity.Topic{
		Id:                    uuid.New(),
		UserId:                h.user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              "nutrition",
		Cultivar:              "currant",
		FollowUpQuestionsLeft: 0,
	})

	res, err := h.svc.BuyFollowUps(context.Background(), &dto.BuyFollowUpsRequest{ExternalChatId: "chat-1"})
	if err != nil {
		t.Fatalf("BuyFollowUps returned error: %v", err)
	}

	if got := h.topics.open().FollowUpQuestionsLeft; got != constant.DefaultFollowUpQuota {
		t.Errorf("quota after purchase = %d, want %d", got, constant.DefaultFollowUpQuota)
	}
	if len(h.billing.debits) != 1 || h.billing.debits[0] != constant.FollowUpPackCost {
		t.Errorf("debits = %v, want one of %d", h.billing.debits, constant.FollowUpPackCost)
	}
	if res.FollowUpQuestionsLeft != constant.DefaultFollowUpQuota {
		t.Errorf("response quota = %d, want %d", res.FollowUpQuestionsLeft, constant.DefaultFollowUpQuota)
	}
}

func TestNewTopicClosesOpenTopic(t *testing.T) {
	h := newHarness(t, &fakeLLM{})
	h.topics.topics = append(h.topics.topics, &entity.Topic{
		Id:                    uuid.New(),
		UserId:                h.user.Id,
		Status:                entity.TopicStatusOpen,
		Category:              "nutrition",
		Cultivar:              "currant",
		FollowUpQuestionsLeft: 2,
	})

	res, err := h.svc.NewTopic(context.Background(), &dto.NewTopicRequest{ExternalChatId: "chat-1"})
	if err != nil {
		t.Fatalf("NewTopic returned error: %v", err)
	}

	if h.topics.open() != nil {
		t.Error("NewTopic must close the open topic")
	}
	if res.State != store.StateAwaitingRootQuestion {
		t.Errorf("state = %s, want AWAITING_ROOT_QUESTION", res.State)
	}
	if !h.logs.has(constant.OperationTopicClosed) {
		t.Error("expected a topic_closed log entry")
	}
}

func TestParameterReplacementUpdatesAdviceContext(t *testing.T) {
	h := newHarness(t, &fakeLLM{})

	res, err := h.svc.RequestParameterReplacement(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("RequestParameterReplacement returned error: %v", err)
	}
	if res.State != store.StateAwaitingParamReplacement {
		t.Fatalf("state = %s, want AWAITING_PARAM_REPLACEMENT", res.State)
	}

	res2, err := h.svc.HandleMessage(context.Background(), newIncoming("southern regions, greenhouse"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}
	if res2.State != store.StateIdle {
		t.Errorf("state = %s, want IDLE after parameters parsed", res2.State)
	}
	if !strings.Contains(res2.Reply, "southern") || !strings.Contains(res2.Reply, "greenhouse") {
		t.Errorf("confirmation should echo the parameters, got %q", res2.Reply)
	}

	state, ok := h.svc.stateRepo.Get(h.user.Id.String())
	if !ok {
		t.Fatal("expected a persisted dialog state")
	}
	if state.Location != "southern regions" || state.GrowingEnvironment != "greenhouse" {
		t.Errorf("state parameters = (%q, %q)", state.Location, state.GrowingEnvironment)
	}
}

func TestRejectedAnswerSkipsModeration(t *testing.T) {
	h := newHarness(t, &fakeLLM{
		classifyResponse: `{"category": "nutrition", "cultivar": "currant"}`,
		chatResponse:     "That question is outside my area. I advise only on growing berry plants.",
	})

	_, err := h.svc.HandleMessage(context.Background(), newIncoming("How do I feed my currant bushes"))
	if err != nil {
		t.Fatalf("HandleMessage returned error: %v", err)
	}

	if len(h.moderation.submitted) != 0 {
		t.Error("rejection replies must not be queued for moderation")
	}
}
