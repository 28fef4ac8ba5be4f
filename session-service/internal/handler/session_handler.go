package handler

import (
	"solaris-server/session-service/internal/service"
	"solaris-server/shared/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler handles HTTP requests of the live session API.
type SessionHandler struct {
	sessionService service.SessionService
	jwtSecret      string
	logger         *zap.Logger
}

func NewSessionHandler(sessionService service.SessionService, jwtSecret string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		jwtSecret:      jwtSecret,
		logger:         logger.Named("SessionHandler"),
	}
}

func (h *SessionHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(h.jwtSecret))
	{
		sessions := api.Group("/sessions/:session_id")
		{
			sessions.GET("/timeline", h.getTimeline)
			sessions.GET("/phase", h.getPhase)
			sessions.POST("/messages", h.postMessage)
			sessions.POST("/actions", h.submitAction)
			sessions.POST("/proceed", h.proceed)
			sessions.POST("/combat/start", h.startCombat)
			sessions.POST("/selection", h.toggleSelection)
			sessions.POST("/selection/clicks", h.clickNarration)
			sessions.POST("/reflections", h.confirmRange)
		}

		api.POST("/reflections/:request_id/votes", h.castVote)
	}
}
