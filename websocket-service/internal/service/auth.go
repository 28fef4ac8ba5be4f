package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthService валидирует токены участников для WebSocket-подписок.
type AuthService struct {
	jwtSecret []byte
	logger    zerolog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(jwtSecret string, logger zerolog.Logger) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		logger:    logger.With().Str("component", "AuthService").Logger(),
	}
}

// ValidateToken проверяет JWT и возвращает ID участника из claim "sub".
func (s *AuthService) ValidateToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("token parse error: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, fmt.Errorf("participant id ('sub') not found in token claims")
	}
	participantID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed participant id in token: %w", err)
	}
	return participantID, nil
}
