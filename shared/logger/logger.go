package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config - настройки логгера, общие для обоих сервисов.
type Config struct {
	// Level - минимальный уровень записи: debug, info, warn, error.
	Level string
	// Encoding - json для продакшена, console для локальной разработки.
	Encoding string
	// OutputPath - файл назначения; пустая строка означает stdout.
	OutputPath string
}

// New собирает zap.Logger по конфигурации. Некорректный уровень не считается
// фатальным: пишем предупреждение в stderr и продолжаем на info.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	requested := strings.ToLower(cfg.Level)
	if requested == "" {
		requested = "info"
	}
	if err := level.UnmarshalText([]byte(requested)); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, falling back to info: %v\n", cfg.Level, err)
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "console" {
		encoding = "json"
	}

	output := cfg.OutputPath
	if output == "" {
		output = "stdout"
	}

	zapCfg := zap.Config{
		Level: level,
		// caller и stacktrace отключены: поля component/sessionID в записях
		// дают достаточный контекст, а горячий путь логирует много.
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
