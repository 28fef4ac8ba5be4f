package handler

import (
	"net/http"

	"solaris-server/session-service/internal/service"
	"solaris-server/shared/middleware"
	"solaris-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requestIdentity достает ID сессии из пути и ID участника из токена.
func (h *SessionHandler) requestIdentity(c *gin.Context) (sessionID, participantID uuid.UUID, ok bool) {
	participantID, found := middleware.UserIDFromContext(c)
	if !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Требуется аутентификация"})
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректный ID сессии"})
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, participantID, true
}

func (h *SessionHandler) getTimeline(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	views, err := h.sessionService.Timeline(c.Request.Context(), sessionID, participantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (h *SessionHandler) getPhase(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	phase, err := h.sessionService.PhaseOf(c.Request.Context(), sessionID, participantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, phaseResponse{Phase: phase})
}

func (h *SessionHandler) postMessage(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	view, err := h.sessionService.PostMessage(c.Request.Context(), sessionID, participantID, req.Content, req.ClientID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) submitAction(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req submitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректный ID цели"})
		return
	}
	draft := service.ActionDraft{
		Type:      req.Type,
		AbilityID: req.AbilityID,
		TargetID:  targetID,
		Narration: req.Narration,
	}
	view, err := h.sessionService.SubmitAction(c.Request.Context(), sessionID, participantID, draft)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) proceed(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	if err := h.sessionService.Proceed(c.Request.Context(), sessionID, participantID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *SessionHandler) startCombat(c *gin.Context) {
	sessionID, _, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req startCombatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	firstActorID, err := uuid.Parse(req.FirstActorID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректный ID первого актора"})
		return
	}
	if err := h.sessionService.StartCombat(c.Request.Context(), sessionID, firstActorID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *SessionHandler) toggleSelection(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req toggleSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	if err := h.sessionService.ToggleSelection(c.Request.Context(), sessionID, participantID, req.Active); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) clickNarration(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req clickNarrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	start, end, err := h.sessionService.ClickNarration(c.Request.Context(), sessionID, participantID, req.EventID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, selectionResponse{RangeStart: start, RangeEnd: end})
}

func (h *SessionHandler) confirmRange(c *gin.Context) {
	sessionID, participantID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req confirmRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	request, err := h.sessionService.ConfirmRange(c.Request.Context(), sessionID, participantID, req.RangeStart, req.RangeEnd)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *SessionHandler) castVote(c *gin.Context) {
	participantID, found := middleware.UserIDFromContext(c)
	if !found {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Требуется аутентификация"})
		return
	}
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректный ID запроса"})
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Error: "Некорректное тело запроса"})
		return
	}
	request, err := h.sessionService.Vote(c.Request.Context(), requestID, participantID, req.Vote)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.logger.Debug("Vote accepted",
		zap.String("requestID", requestID.String()),
		zap.String("participantID", participantID.String()))
	c.JSON(http.StatusOK, request)
}
