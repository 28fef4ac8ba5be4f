package config

import (
	"fmt"
	"log"
	"time"

	"solaris-server/shared/utils"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию для Session Service
type Config struct {
	// Настройки сервера
	Port     string `envconfig:"SESSION_SERVER_PORT" default:"8083"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (фазовые состояния)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	// Настройки RabbitMQ
	RabbitMQURL              string `envconfig:"RABBITMQ_URL" required:"true"`
	JudgmentTaskQueueName    string `envconfig:"JUDGMENT_TASK_QUEUE_NAME" default:"judgment_tasks"`
	InternalUpdatesQueueName string `envconfig:"INTERNAL_UPDATES_QUEUE_NAME" default:"internal_updates"`
	ClientUpdatesQueueName   string `envconfig:"CLIENT_UPDATES_QUEUE_NAME" default:"client_updates"`

	// Ростер-сервис (состав сессий)
	RosterServiceURL string `envconfig:"ROSTER_SERVICE_URL" required:"true"`
	// Секретное поле БЕЗ envconfig тега
	InterServiceToken string

	// Настройки JWT (для проверки токена участника в middleware)
	// Секретное поле БЕЗ envconfig тега
	JWTSecret string
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации session-service: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = utils.ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	cfg.InterServiceToken, loadErr = utils.ReadSecret("interservice_token")
	if loadErr != nil {
		return nil, loadErr
	}

	// Redis-пароль опционален: локальный docker-compose поднимает Redis без него
	cfg.RedisPassword, loadErr = utils.ReadSecret("redis_password")
	if loadErr != nil {
		log.Printf("Секрет redis_password не найден, подключение к Redis без пароля")
		cfg.RedisPassword = ""
	}

	log.Printf("Конфигурация Session Service загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis: %s (db %d)", cfg.RedisAddr, cfg.RedisDB)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQURL)
	log.Printf("  Judgment Task Queue: %s", cfg.JudgmentTaskQueueName)
	log.Printf("  Internal Updates Queue Name: %s", cfg.InternalUpdatesQueueName)
	log.Printf("  Client Updates Queue Name: %s", cfg.ClientUpdatesQueueName)
	log.Printf("  Roster Service URL: %s", cfg.RosterServiceURL)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
