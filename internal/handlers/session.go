package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/artograph/artograph-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) ListSessions(c *gin.Context) {
	var clientID *uuid.UUID
	if raw := c.Query("clientId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid clientId"))
			return
		}
		clientID = &parsed
	}
	sessions, err := sh.sessionService.ListSessions(c.Request.Context(), clientID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (sh *SessionHandler) CreateSession(c *gin.Context) {
	var input services.CreateSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if input.ClientID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("clientId is required"))
		return
	}
	session, err := sh.sessionService.CreateSession(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}
