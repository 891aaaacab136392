package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/artograph/artograph-backend/internal/services"
)

type ClientHandler struct {
	clientService services.ClientService
}

func NewClientHandler(clientService services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (ch *ClientHandler) ListClients(c *gin.Context) {
	clients, err := ch.clientService.ListClients(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"clients": clients})
}

func (ch *ClientHandler) CreateClient(c *gin.Context) {
	var input services.CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if input.Name == "" || input.Email == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("name and email are required"))
		return
	}
	client, err := ch.clientService.CreateClient(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": client})
}

func (ch *ClientHandler) GetClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid client id"))
		return
	}
	client, err := ch.clientService.GetClient(c.Request.Context(), clientID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"client": client})
}

func (ch *ClientHandler) UpdateClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid client id"))
		return
	}
	var input services.UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	client, err := ch.clientService.UpdateClient(c.Request.Context(), clientID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"client": client})
}
