package bootstrap

import (
	"context"
	"log"

	"berry-advisory-be/internal/config"
	"berry-advisory-be/internal/controller"
	"berry-advisory-be/internal/pkg/logger"
	"berry-advisory-be/internal/repository/memory"
	"berry-advisory-be/internal/repository/rediscache"
	"berry-advisory-be/internal/repository/unitofwork"
	"berry-advisory-be/internal/service"
	"berry-advisory-be/pkg/embedding"
	"berry-advisory-be/pkg/llm/factory"

	pkgNats "berry-advisory-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ConsultationController controller.IConsultationController
	KnowledgeController    controller.IKnowledgeController
	DocumentController     controller.IDocumentController
	ModerationController   controller.IModerationController
	BillingController      controller.IBillingController
	LogController          controller.ILogController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.ApiKey,
		cfg.Ai.BaseURL,
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.BaseURL,
		cfg.Ai.ApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory dialog state with per-user locking
	stateRepo := memory.NewDialogStateRepository()

	// 4. Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	cultivarCache := rediscache.NewCultivarCache(rdb, func(ctx context.Context) ([]string, error) {
		return uowFactory.NewUnitOfWork(ctx).KnowledgeEntryRepository().DistinctCultivars(ctx)
	}, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Ai.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Ai.IngestTopic,
		uowFactory,
		embeddingProvider,
		cfg.Ai.EmbeddingDimension,
		natsPub,
	)

	userService := service.NewUserService(uowFactory, sysLogger)
	billingService := service.NewBillingService(uowFactory, natsPub, sysLogger)
	moderationService := service.NewModerationService(
		uowFactory,
		embeddingProvider,
		cfg.Ai.EmbeddingDimension,
		cultivarCache,
		natsPub,
		sysLogger,
	)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		embeddingProvider,
		cfg.Ai.EmbeddingDimension,
		cultivarCache,
		natsPub,
		sysLogger,
	)
	documentService := service.NewDocumentService(uowFactory, publisherService, sysLogger)

	consultationService := service.NewConsultationService(
		uowFactory,
		stateRepo,
		userService,
		billingService,
		moderationService,
		llmProvider,
		embeddingProvider,
		cfg.Ai.EmbeddingDimension,
		cultivarCache,
		natsPub,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		ConsultationController: controller.NewConsultationController(consultationService),
		KnowledgeController:    controller.NewKnowledgeController(knowledgeService),
		DocumentController:     controller.NewDocumentController(documentService),
		ModerationController:   controller.NewModerationController(moderationService),
		BillingController:      controller.NewBillingController(userService, billingService),
		LogController:          controller.NewLogController(sysLogger),

		ConsumerService: consumerService,
	}
}
