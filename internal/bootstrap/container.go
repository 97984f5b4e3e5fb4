package bootstrap

import (
	"context"
	"log"

	"invoice-intake-be/internal/config"
	"invoice-intake-be/internal/controller"
	"invoice-intake-be/internal/handler"
	"invoice-intake-be/internal/pkg/logger"
	"invoice-intake-be/internal/pkg/mailer"
	"invoice-intake-be/internal/repository/contract"
	"invoice-intake-be/internal/repository/memory"
	redisRepo "invoice-intake-be/internal/repository/redis"
	"invoice-intake-be/internal/repository/unitofwork"
	"invoice-intake-be/internal/service"
	"invoice-intake-be/pkg/llm/factory"
	pktNats "invoice-intake-be/pkg/nats"
	"invoice-intake-be/pkg/skyservice"
	"invoice-intake-be/pkg/telegram"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	WebhookController controller.IWebhookController

	// Background services (started by main)
	DiagnosticsService service.IDiagnosticsService
	EventService       service.IEventService

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.SMTP.OperatorEmail,
	)

	// 2. Event bus for operator diagnostics
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. External clients
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		GeminiAPIKey:  cfg.Ai.GeminiAPIKey,
		GeminiBaseURL: cfg.Ai.GeminiBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	tg := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
	sky := skyservice.NewClient(skyservice.Config{
		BaseURL:    cfg.Sky.BaseURL,
		Token:      cfg.Sky.Token,
		DeviceUUID: cfg.Sky.DeviceUUID,
		Timezone:   cfg.Sky.Timezone,
	})

	// 4. Session store
	sessions := c.newSessionStore(cfg)

	// 5. NATS; unreachable means events are skipped
	var publisher service.EventPublisher
	var subscriber service.EventSubscriber
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		subscriber = natsSub
		c.closers = append(c.closers, natsSub.Close)
	}

	// 6. Services
	diagLogger := logger.NewIsolatedLogger("logs/diagnostics.log")
	diagnostics := service.NewDiagnosticsService(pubSub, tg, cfg.Telegram.DebugChatID, emailService, diagLogger)
	events := service.NewEventService(publisher, subscriber, diagnostics, sysLogger)

	catalog := service.NewCatalogService(uowFactory, sysLogger)
	recognition := service.NewRecognitionService(tg, llmProvider, service.RecognitionOptions{
		MaxPhotoBytes: cfg.Recognition.MaxPhotoBytes,
		EnhanceImage:  cfg.Recognition.EnhanceImage,
	}, sysLogger)
	matching := service.NewMatchingService(catalog, llmProvider, sysLogger)
	review := service.NewReviewService(tg, sessions, catalog, sysLogger)
	tradePoints := service.NewTradePointService(tg, sessions, catalog, cfg.TradePoints, sysLogger)
	submission := service.NewSubmissionService(sky, sessions, cfg.TradePoints, catalog, uowFactory, events, diagnostics, tg, sysLogger)

	flow := service.NewInvoiceFlowService(tg, sessions, catalog, recognition, matching, review, tradePoints, submission, diagnostics, sysLogger)

	// 7. Transport
	router := handler.NewUpdateRouter(handler.RouterConfig{
		BotUsername:    cfg.Telegram.BotUsername,
		CaptionTrigger: cfg.Recognition.CaptionTrigger,
	}, tg, flow, sysLogger)

	c.WebhookController = controller.NewWebhookController(router, tg, cfg.Session.LockWait, sysLogger)
	c.DiagnosticsService = diagnostics
	c.EventService = events
	return c
}

func (c *Container) newSessionStore(cfg *config.Config) contract.SessionStore {
	if cfg.App.SessionBackend != "redis" {
		log.Printf("[INFO] Using in-memory session store (ttl %s)", cfg.Session.TTL)
		return memory.NewSessionRepository(cfg.Session.TTL)
	}

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
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	log.Printf("[INFO] Using Redis session store (ttl %s)", cfg.Session.TTL)
	return redisRepo.NewSessionRepository(rdb, cfg.Session.TTL)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
