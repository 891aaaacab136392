package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/artograph/artograph-backend/internal/services"
)

type AssignmentHandler struct {
	assignmentService services.AssignmentService
	emailService      services.EmailService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, emailService services.EmailService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		emailService:      emailService,
	}
}

func (ah *AssignmentHandler) ListAssignments(c *gin.Context) {
	clientID, err := optionalUUIDQuery(c, "clientId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	sessionID, err := optionalUUIDQuery(c, "sessionId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	assignments, err := ah.assignmentService.ListAssignments(c.Request.Context(), clientID, sessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignments": assignments})
}

func (ah *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var input services.CreateAssignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if input.Title == "" || input.ClientID == uuid.Nil || input.SessionID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("title, clientId and sessionId are required"))
		return
	}
	assignment, err := ah.assignmentService.CreateAssignment(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) GetAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	assignment, err := ah.assignmentService.GetAssignment(c.Request.Context(), assignmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

// UpdateAssignment creates a new version rather than mutating the
// stored row; the response carries the new row.
func (ah *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	var input services.UpdateAssignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	assignment, err := ah.assignmentService.UpdateAssignment(c.Request.Context(), assignmentID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	if err := ah.assignmentService.DeleteAssignment(c.Request.Context(), assignmentID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

type cloneAssignmentRequest struct {
	ClientID  *uuid.UUID `json:"clientId"`
	SessionID *uuid.UUID `json:"sessionId"`
}

func (ah *AssignmentHandler) CloneAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	var req cloneAssignmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	assignment, err := ah.assignmentService.CloneAssignment(c.Request.Context(), assignmentID, req.ClientID, req.SessionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

func (ah *AssignmentHandler) SaveAsTemplate(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	var input services.SaveTemplateInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	template, err := ah.assignmentService.SaveAsTemplate(c.Request.Context(), assignmentID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": template})
}

func (ah *AssignmentHandler) GenerateAssignment(c *gin.Context) {
	var input services.GenerateAssignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if input.ClientID == uuid.Nil || input.SessionID == uuid.Nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("clientId and sessionId are required"))
		return
	}
	assignment, err := ah.assignmentService.GenerateAssignment(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, generateErrorMessage(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

// generateErrorMessage rewrites common provider failures into guidance
// a practice admin can act on. Not-found and permission errors pass
// through untouched so status mapping still works.
func generateErrorMessage(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key"):
		return fmt.Errorf("OpenAI API key is missing or invalid. Please check your .env file.")
	case strings.Contains(msg, "No response from AI"):
		return fmt.Errorf("AI service did not respond. Please check your OpenAI API key and try again.")
	default:
		return err
	}
}

type sendAssignmentRequest struct {
	TherapistNote string `json:"therapistNote"`
}

func (ah *AssignmentHandler) SendAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	var req sendAssignmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	outcome, err := ah.emailService.SendAssignment(c.Request.Context(), assignmentID, req.TherapistNote)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, outcome)
}

func (ah *AssignmentHandler) ListEmailLogs(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid assignment id"))
		return
	}
	logs, err := ah.emailService.ListEmailLogs(c.Request.Context(), assignmentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"emailLogs": logs})
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &parsed, nil
}
