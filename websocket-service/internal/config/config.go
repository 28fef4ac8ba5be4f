package config

import (
	"fmt"
	"log"

	"solaris-server/shared/utils"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config содержит всю конфигурацию для WebSocket сервиса.
type Config struct {
	Server   ServerConfig
	RabbitMQ RabbitMQConfig
	// JWTSecret загружается из секрета
	JWTSecret string
}

// ServerConfig содержит настройки HTTP сервера.
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8084"`                 // Основной порт для WebSocket
	MetricsPort string `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9092"` // Порт для Prometheus метрик
}

// RabbitMQConfig содержит настройки для подключения к RabbitMQ.
type RabbitMQConfig struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"client_updates_queue_name" env:"CLIENT_UPDATES_QUEUE_NAME" env-default:"client_updates"` // Очередь push-ленты
}

// LoadConfig загружает конфигурацию из config.yml с fallback на переменные
// окружения, секреты читаются из файлов.
func LoadConfig() (*Config, error) {
	configPath := "config.yml" // Путь по умолчанию

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}

	var loadErr error
	cfg.JWTSecret, loadErr = utils.ReadSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Конфигурация WebSocket сервиса загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Server.Port)
	log.Printf("  Metrics Port: %s", cfg.Server.MetricsPort)
	log.Printf("  RabbitMQ URL: %s", cfg.RabbitMQ.URL)
	log.Printf("  Client Updates Queue Name: %s", cfg.RabbitMQ.QueueName)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}
