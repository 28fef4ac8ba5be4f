package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"solaris-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTAuthMiddleware создает middleware для проверки JWT access токена.
// Проверяет подпись и срок действия, извлекает ID участника из клейма "sub"
// и кладет его в контекст Gin под models.ContextKeyUserID.
// Выдачей и отзывом токенов занимается внешний identity-сервис.
func JWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Authorization header missing"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid Authorization header format"})
			return
		}

		userID, err := ParseParticipantToken(parts[1], secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid or expired token"})
			return
		}

		c.Set(models.ContextKeyUserID, userID)
		c.Next()
	}
}

// ParseParticipantToken валидирует токен и возвращает ID участника из "sub".
func ParseParticipantToken(tokenString, secretKey string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("token parse error: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, models.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid 'sub' claim: %w", err)
	}
	return userID, nil
}

// UserIDFromContext достает ID участника, положенный JWTAuthMiddleware.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(models.ContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}
