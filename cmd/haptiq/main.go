package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/haptiq/haptiq-server/internal/domain"
	"github.com/haptiq/haptiq-server/internal/game"
	"github.com/haptiq/haptiq-server/internal/infrastructure/configs"
	"github.com/haptiq/haptiq-server/internal/infrastructure/env"
	"github.com/haptiq/haptiq-server/internal/infrastructure/events"
	"github.com/haptiq/haptiq-server/internal/infrastructure/logging"
	"github.com/haptiq/haptiq-server/internal/infrastructure/messaging"
	"github.com/haptiq/haptiq-server/internal/infrastructure/metrics"
	"github.com/haptiq/haptiq-server/internal/infrastructure/ratelimiter"
	"github.com/haptiq/haptiq-server/internal/infrastructure/tracing"
	"github.com/haptiq/haptiq-server/internal/infrastructure/ws"
	"github.com/haptiq/haptiq-server/internal/persistence/db"
	"github.com/haptiq/haptiq-server/internal/persistence/repository"
	"github.com/haptiq/haptiq-server/internal/presentation/api"
	gamehandler "github.com/haptiq/haptiq-server/internal/presentation/handler/game"
	"github.com/haptiq/haptiq-server/internal/presentation/handler/health"
	"github.com/haptiq/haptiq-server/internal/presentation/handler/rooms"
	"github.com/haptiq/haptiq-server/internal/store"
	"github.com/haptiq/haptiq-server/internal/store/memory"
	storemongo "github.com/haptiq/haptiq-server/internal/store/mongo"
)

const (
	serviceName = "haptiq-server"
)

func main() {
	_ = godotenv.Load()

	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	var (
		gameStore store.Store
		auditRepo domain.GameAuditRepository
	)

	switch cfg.Store.Backend {
	case "mongo":
		mongoCfg := db.NewMongoDefaultConfig()
		client, err := db.NewMongoClient(ctx, mongoCfg)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := db.DisconnectMongo(context.Background(), client); err != nil {
				log.Printf("mongodb disconnect: %v", err)
			}
		}()

		database := db.GetDatabase(client, mongoCfg)
		gameStore = storemongo.New(database)

		auditRepo = repository.NewGameAuditLogRepository(database)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to ensure audit indexes: %v", err)
		}
	default:
		gameStore = memory.New()
	}

	roomManager := ws.NewRoomManager()
	wsCore := ws.NewCore(roomManager)
	go wsCore.Run()

	m := metrics.New()
	notifier := ws.NewNotifier(wsCore)
	observed := metrics.NewGameObserver(m, notifier)

	var publisher game.Publisher
	if rabbitMqURI := env.GetString("RABBITMQ_URI", ""); rabbitMqURI != "" {
		rabbitmq, err := messaging.NewRabbitMQ(rabbitMqURI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		log.Println("Starting RabbitMQ connection")
		publisher = events.NewGamePublisher(rabbitmq)

		if auditRepo != nil {
			gameConsumer := events.NewGameConsumer(rabbitmq, auditRepo, logger)
			go func() {
				if err := gameConsumer.Listen(); err != nil {
					logger.Errorf("game consumer stopped: %v", err)
				}
			}()
		}
	}

	service := game.NewService(game.Options{
		Store:     gameStore,
		Logger:    logger,
		Config:    cfg.Game,
		Notifier:  observed,
		Publisher: publisher,
		Haptics:   notifier,
	})
	defer service.Close()

	roomHandler := rooms.NewHandler(service, roomManager, wsCore, m)
	gameHandler := gamehandler.NewHandler(service, m)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(*cfg, *roomHandler, *gameHandler, *healthHandler, logger, m, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
