package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/SpokieKid/mystory/internal/config"
	"github.com/SpokieKid/mystory/internal/game"
	"github.com/SpokieKid/mystory/internal/handler"
	"github.com/SpokieKid/mystory/internal/logger"
	"github.com/SpokieKid/mystory/internal/messaging"
	"github.com/SpokieKid/mystory/internal/script"
	"github.com/SpokieKid/mystory/internal/secondme"
	"github.com/SpokieKid/mystory/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting game server", zap.String("port", cfg.Port))

	scripts := script.Default()

	// Session store backend.
	var sessionStore store.SessionStore
	switch cfg.StoreBackend {
	case config.StoreRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			zapLogger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		defer redisClient.Close()
		sessionStore = store.NewRedisSessionStore(redisClient, scripts, zapLogger)
		zapLogger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
	default:
		sessionStore = store.NewMemorySessionStore(scripts, zapLogger)
		zapLogger.Info("Using in-memory session store")
	}

	// Optional game-event publishing.
	var events messaging.EventPublisher = messaging.NoopEventPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()

		events, err = messaging.NewRabbitMQEventPublisher(conn, cfg.GameEventsQueue, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to initialize event publisher", zap.Error(err))
		}
	} else {
		zapLogger.Info("RabbitMQ URL not set, game events disabled")
	}

	secondMeClient := secondme.NewClient(cfg.SecondMeBaseURL, cfg.GenerationTimeout, zapLogger)
	var voice secondme.VoiceSynthesizer
	if cfg.VoiceEnabled {
		voice = secondMeClient
	}

	engine := game.NewEngine(sessionStore, scripts, secondMeClient, voice, events, zapLogger, game.EngineConfig{
		RateLimitDelay:   cfg.RateLimitDelay,
		MaxContextTokens: cfg.MaxContextTokens,
	})

	gameHandler := handler.NewGameHandler(sessionStore, scripts, engine, events, zapLogger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.ZapLoggingMiddleware(zapLogger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowOrigins) == 1 && cfg.CORSAllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	prom := ginprometheus.NewPrometheus("mystory")
	prom.Use(router)

	gameHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Graceful shutdown failed", zap.Error(err))
	}

	zapLogger.Info("Server stopped")
}
