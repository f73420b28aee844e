package bootstrap

import (
	"context"
	"log"
	"time"

	"evoblast-be/internal/config"
	"evoblast-be/internal/constant"
	"evoblast-be/internal/controller"
	"evoblast-be/internal/pkg/logger"
	"evoblast-be/internal/repository/contract"
	"evoblast-be/internal/repository/memory"
	"evoblast-be/internal/repository/redisstore"
	"evoblast-be/internal/repository/unitofwork"
	"evoblast-be/internal/service"
	"evoblast-be/pkg/assistant/yandex"
	pkgNats "evoblast-be/pkg/nats"
	"evoblast-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const rebuildIndexTopic = "REBUILD_SEARCH_INDEX"

type Container struct {
	// Controllers
	FileController  controller.IFileController
	IndexController controller.IIndexController
	ChatController  controller.IChatController
	AuthController  controller.IAuthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	indexerLogger := logger.NewIsolatedLogger(cfg.App.IndexerLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Object storage for raw document bytes
	objectStore, err := storage.NewMinioStore(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize object storage: %v", err)
	}

	// Assistant provider
	provider := yandex.NewYandexProvider(
		cfg.Assistant.BaseURL,
		cfg.Assistant.APIKey,
		cfg.Assistant.FolderID,
		cfg.Assistant.Model,
		cfg.Assistant.TitleModel,
		constant.AssistantInstructionV1,
	)

	// Turn dedup store: redis when configured, in-process cache otherwise
	dedupTTL := time.Duration(cfg.Redis.DedupTTLSeconds) * time.Second
	var dedupRepo contract.DedupRepository
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		dedupRepo = redisstore.NewDedupRepository(rdb, dedupTTL)
		log.Println("[INFO] Using Redis turn dedup store")
	} else {
		dedupRepo = memory.NewDedupRepository(dedupTTL)
		log.Println("[INFO] Using in-memory turn dedup store")
	}

	// 3. Services
	publisherService := service.NewPublisherService(rebuildIndexTopic, pubSub)
	indexerService := service.NewIndexerService(uowFactory, provider, natsPub, indexerLogger)
	consumerService := service.NewConsumerService(pubSub, rebuildIndexTopic, indexerService)

	documentService := service.NewDocumentService(
		uowFactory,
		provider,
		objectStore,
		publisherService,
		natsPub,
		cfg.Upload,
		sysLogger,
	)
	chatService := service.NewChatService(
		uowFactory,
		provider,
		indexerService,
		dedupRepo,
		natsPub,
		sysLogger,
	)
	authService := service.NewAuthService()

	// 4. Controllers
	return &Container{
		FileController:  controller.NewFileController(documentService),
		IndexController: controller.NewIndexController(indexerService),
		ChatController:  controller.NewChatController(chatService),
		AuthController:  controller.NewAuthController(authService),

		ConsumerService: consumerService,
	}
}
