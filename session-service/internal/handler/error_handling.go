package handler

import (
	"errors"
	"net/http"

	"solaris-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит доменные ошибки ядра в HTTP-статусы.
// Валидация заявки сообщает РОВНО ОДНУ причину отказа: ту проверку,
// которая упала первой.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, models.ErrNotYourTurn):
		statusCode = http.StatusConflict
		message = "Сейчас не ваш ход"
	case errors.Is(err, models.ErrNoAbilityChosen):
		statusCode = http.StatusUnprocessableEntity
		message = "Способность не выбрана"
	case errors.Is(err, models.ErrNoTargetChosen):
		statusCode = http.StatusUnprocessableEntity
		message = "Цель не выбрана"
	case errors.Is(err, models.ErrTargetNotInSet):
		statusCode = http.StatusUnprocessableEntity
		message = "Цель вне допустимого набора для этого действия"
	case errors.Is(err, models.ErrEmptyNarration):
		statusCode = http.StatusUnprocessableEntity
		message = "Текст наррации пуст"
	case errors.Is(err, models.ErrInsufficientPoolA):
		statusCode = http.StatusUnprocessableEntity
		message = "Недостаточно витальности для этой способности"
	case errors.Is(err, models.ErrInsufficientPoolB):
		statusCode = http.StatusUnprocessableEntity
		message = "Недостаточно воли для этой способности"
	case errors.Is(err, models.ErrPhaseTransition):
		statusCode = http.StatusConflict
		message = "Недопустимый переход фазы хода"
	case errors.Is(err, models.ErrParticipantNotInRoom):
		statusCode = http.StatusForbidden
		message = "Участник не входит в состав сессии"
	case errors.Is(err, models.ErrAlreadyVoted):
		statusCode = http.StatusConflict
		message = "Голос уже записан и неизменяем"
	case errors.Is(err, models.ErrVotingClosed):
		statusCode = http.StatusConflict
		message = "Голосование по этому запросу закрыто"
	case errors.Is(err, models.ErrRangeNotSelected):
		statusCode = http.StatusUnprocessableEntity
		message = "Диапазон рефлексии не выбран"
	case errors.Is(err, models.ErrRangeInvalid):
		statusCode = http.StatusUnprocessableEntity
		message = "Границы диапазона не являются narration-событиями таймлайна"
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrRequestNotFound),
		errors.Is(err, models.ErrEventNotFound), errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Ресурс не найден"
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrMalformedJudgment):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrTokenInvalid):
		statusCode = http.StatusUnauthorized
		message = "Требуется аутентификация"
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		message = "Доступ запрещен"
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = "Внутренняя ошибка сервера"
	}

	c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Error: message})
}
