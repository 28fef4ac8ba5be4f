package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solaris-server/websocket-service/internal/config"
	"solaris-server/websocket-service/internal/handler"
	"solaris-server/websocket-service/internal/messaging"
	"solaris-server/websocket-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func main() {
	// Загружаем .env файл (если есть) для локальной разработки
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "websocket-service").Logger()
	logger.Info().Msg("Запуск WebSocket сервиса...")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Ошибка загрузки конфигурации")
	}

	rabbitConn, err := connectRabbitMQ(cfg.RabbitMQ.URL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Не удалось подключиться к RabbitMQ")
	}
	defer rabbitConn.Close()
	logger.Info().Msg("Успешное подключение к RabbitMQ")

	connManager := handler.NewConnectionManager(logger)
	authService := service.NewAuthService(cfg.JWTSecret, logger)
	wsHandler := handler.NewWebSocketHandler(connManager, authService, logger)

	mqConsumer, err := messaging.NewConsumer(rabbitConn, connManager, cfg.RabbitMQ.QueueName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Не удалось создать консьюмер RabbitMQ")
	}
	go func() {
		if err := mqConsumer.StartConsuming(); err != nil {
			logger.Error().Err(err).Msg("Ошибка при работе консьюмера RabbitMQ")
		}
	}()
	logger.Info().Msg("Консьюмер RabbitMQ запущен")

	// --- Основной HTTP сервер (WebSocket + health) ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// Токен и session_id приходят query-параметрами: браузерный WebSocket
	// не умеет ставить Authorization-заголовок.
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.ServeWS(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// --- Отдельный сервер метрик ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.Server.MetricsPort,
		Handler: metricsMux,
	}
	go func() {
		logger.Info().Str("port", cfg.Server.MetricsPort).Msg("Сервер метрик слушает")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Ошибка сервера метрик")
		}
	}()

	logger.Info().Str("port", cfg.Server.Port).Msg("WebSocket сервер слушает")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Ошибка запуска сервера")
		}
	}()

	// Ожидание сигнала завершения для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Получен сигнал завершения, начинаем graceful shutdown...")

	mqConsumer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при graceful shutdown HTTP сервера")
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Ошибка при graceful shutdown сервера метрик")
	}

	logger.Info().Msg("WebSocket сервис успешно остановлен")
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(url string, logger zerolog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 50
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn().Err(err).
			Int("attempt", i+1).
			Int("max_attempts", maxRetries).
			Dur("retry_delay", retryDelay).
			Msg("Не удалось подключиться к RabbitMQ, повтор...")
		time.Sleep(retryDelay)
	}
	return nil, err
}
