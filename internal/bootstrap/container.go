package bootstrap

import (
	"context"
	"log"

	"fleet-assistant-be/internal/config"
	"fleet-assistant-be/internal/controller"
	"fleet-assistant-be/internal/handler"
	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/internal/pkg/serverutils"
	"fleet-assistant-be/internal/repository/memory"
	"fleet-assistant-be/internal/repository/unitofwork"
	"fleet-assistant-be/internal/service"
	"fleet-assistant-be/internal/websocket"
	"fleet-assistant-be/pkg/assistant/contextbuilder"
	"fleet-assistant-be/pkg/assistant/draft"
	"fleet-assistant-be/pkg/assistant/ledger"
	"fleet-assistant-be/pkg/assistant/quota"
	"fleet-assistant-be/pkg/assistant/tools"
	"fleet-assistant-be/pkg/events"
	"fleet-assistant-be/pkg/llm/factory"

	pktNats "fleet-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	ConversationController controller.IConversationController
	ActionController       controller.IActionController
	AssistantController    controller.IAssistantController
	PlanController         controller.PlanController

	// Background Services (Exposed for main.go to run)
	NotifierService service.INotifierService

	// WebSockets
	AssistantFeedHandler *handler.AssistantFeedHandler
	WebSocketHub         *websocket.Hub

	closers []func() error
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	publisher := events.NewBusPublisher(pubSub, events.Topic)

	// 3. Infrastructure
	var forwarder service.EventForwarder
	var closers []func() error
	if cfg.Nats.URL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Nats.URL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			closers = append(closers, func() error { natsPub.Close(); return nil })
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		closers = append(closers, rdb.Close)
	}
	closers = append(closers, pubSub.Close)

	wsHub := websocket.NewHub(rdb, sysLogger)

	// 4. LLM Provider
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.Provider, cfg.Ai.Model, cfg.Ai.BaseURL, cfg.Ai.APIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// 5. Assistant pipeline
	registry := tools.NewFleetRegistry()
	statsCache := memory.NewStatsCache(contextbuilder.StatsTTL, contextbuilder.StatsCleanupEvery)

	guard := quota.NewGuard(quota.Config{
		FreePlanSlug:  cfg.Quota.FreePlanSlug,
		FreePlanLimit: cfg.Quota.FreePlanLimit,
	}, publisher, sysLogger)
	builder := contextbuilder.NewBuilder(uowFactory, service.StoreFor, statsCache, sysLogger, cfg.Ai.MemoryLimit)
	generator := draft.NewGenerator(llmProvider, registry.LLMTools(), draft.Config{
		Model:       cfg.Ai.Model,
		Timeout:     cfg.Ai.Timeout,
		MaxTokens:   cfg.Ai.MaxTokens,
		Temperature: cfg.Ai.Temperature,
	}, sysLogger)
	actionLedger := ledger.NewLedger(uowFactory, registry, service.StoreFor, publisher, sysLogger,
		ledger.WithInvalidator(builder),
	)

	// 6. Services
	conversationService := service.NewConversationService(uowFactory, guard, builder, generator, actionLedger, publisher, sysLogger)
	actionService := service.NewActionService(actionLedger, registry)
	planService := service.NewPlanService(uowFactory, guard)
	notifierService := service.NewNotifierService(pubSub, events.Topic, forwarder, wsHub, sysLogger)

	return &Container{
		Logger: sysLogger,

		ConversationController: controller.NewConversationController(conversationService, serverutils.PerUserLimiter(cfg.App.MessageRateLimit)...),
		ActionController:       controller.NewActionController(actionService),
		AssistantController:    controller.NewAssistantController(conversationService, actionService, planService),
		PlanController:         controller.NewPlanController(planService),

		NotifierService: notifierService,

		AssistantFeedHandler: handler.NewAssistantFeedHandler(wsHub, cfg.App.JWTSecret, sysLogger),
		WebSocketHub:         wsHub,

		closers: closers,
	}
}

// Close releases the broker connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Printf("[WARN] Close failed: %v", err)
		}
	}
	_ = c.Logger.Sync()
}
