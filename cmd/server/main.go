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

	"quest-server/internal/config"
	"quest-server/internal/database"
	"quest-server/internal/handler"
	"quest-server/internal/interfaces"
	"quest-server/internal/logger"
	"quest-server/internal/messaging"
	"quest-server/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	log.Println("Запуск Quest Server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zapLogger.Info("Configuration loaded", cfg.LogFields()...)

	playingOpts, err := cfg.PlayingOptions()
	if err != nil {
		zapLogger.Fatal("Invalid playing options", zap.Error(err))
	}

	// PostgreSQL
	dbPool, err := database.NewPool(context.Background(), database.PoolConfig{
		DSN:         cfg.GetDSN(),
		MaxConns:    cfg.DBMaxConns,
		IdleTimeout: cfg.DBIdleTimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()

	if cfg.AutoMigrate {
		if err := database.ApplyMigrations(dbPool, zapLogger); err != nil {
			zapLogger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		zapLogger.Fatal("Не удалось подключиться к Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()
	defer func() { _ = redisClient.Close() }()
	zapLogger.Info("Успешное подключение к Redis", zap.String("addr", cfg.RedisAddr))

	// RabbitMQ, необязательно
	var publisher interfaces.SessionEventPublisher
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()

		eventPublisher, err := messaging.NewSessionEventPublisher(rabbitConn, cfg.SessionEventsQueue, zapLogger)
		if err != nil {
			zapLogger.Fatal("Не удалось создать SessionEventPublisher", zap.Error(err))
		}
		defer eventPublisher.Close()
		publisher = eventPublisher
	} else {
		zapLogger.Warn("RABBITMQ_URL is empty, session events are disabled")
	}

	// Зависимости
	txManager := database.NewTxManager(dbPool)
	contentRepo := database.NewPgContentRepository(zapLogger)
	sessionRepo := database.NewPgSessionRepository(zapLogger)
	statsRepo := database.NewPgStoryStatsRepository(zapLogger)
	pendingRepo := database.NewRedisPendingTransitionRepository(redisClient, zapLogger)

	playingService := service.NewPlayingService(contentRepo, sessionRepo, statsRepo, pendingRepo, txManager, publisher, playingOpts, zapLogger)
	browsingService := service.NewStoryBrowsingService(contentRepo, txManager, zapLogger)

	verifier, err := handler.NewJWTVerifier(cfg.JWTSecret, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create JWT verifier", zap.Error(err))
	}
	questHandler := handler.NewQuestHandler(playingService, browsingService, verifier.VerifyToken, zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(handler.EchoZapLogger(zapLogger))
	e.Use(handler.PrometheusMiddleware())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	questHandler.RegisterRoutes(e)

	go func() {
		zapLogger.Info("Quest server listening", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Получен сигнал завершения, начинаем graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zapLogger.Error("Ошибка при graceful shutdown Echo", zap.Error(err))
	}
	zapLogger.Info("Quest Server успешно остановлен")
}

// connectRabbitMQ подключается к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("Успешное подключение к RabbitMQ")
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
