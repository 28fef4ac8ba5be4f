package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// secretsDir - стандартный каталог Docker Secrets внутри контейнера.
const secretsDir = "/run/secrets"

// ReadSecret возвращает значение секрета по имени файла в secretsDir.
// Переменные окружения намеренно не используются как запасной источник:
// секрет либо смонтирован, либо сервис не должен стартовать.
func ReadSecret(secretName string) (string, error) {
	path := filepath.Join(secretsDir, secretName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	value := strings.TrimSpace(string(raw))
	if value == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return value, nil
}
