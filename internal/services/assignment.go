package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/types"
)

type CreateAssignmentInput struct {
	Title              string          `json:"title"`
	TaskDescription    string          `json:"taskDescription"`
	LearningObjectives string          `json:"learningObjectives"`
	ReflectionPrompts  string          `json:"reflectionPrompts"`
	EstimatedTime      *int            `json:"estimatedTime"`
	DifficultyLevel    string          `json:"difficultyLevel"`
	CustomFields       json.RawMessage `json:"customFields"`
	ClientID           uuid.UUID       `json:"clientId"`
	SessionID          uuid.UUID       `json:"sessionId"`
	ParentAssignmentID *uuid.UUID      `json:"parentAssignmentId"`
	TherapistID        *uuid.UUID      `json:"therapistId"`
}

type UpdateAssignmentInput struct {
	Title              string          `json:"title"`
	TaskDescription    string          `json:"taskDescription"`
	LearningObjectives string          `json:"learningObjectives"`
	ReflectionPrompts  string          `json:"reflectionPrompts"`
	EstimatedTime      *int            `json:"estimatedTime"`
	DifficultyLevel    string          `json:"difficultyLevel"`
	CustomFields       json.RawMessage `json:"customFields"`
}

type GenerateAssignmentInput struct {
	ClientID    uuid.UUID  `json:"clientId"`
	SessionID   uuid.UUID  `json:"sessionId"`
	TherapistID *uuid.UUID `json:"therapistId"`
}

type SaveTemplateInput struct {
	Tags   []string `json:"tags"`
	Status string   `json:"status"`
}

type AssignmentService interface {
	ListAssignments(ctx context.Context, clientID, sessionID *uuid.UUID) ([]*types.Assignment, error)
	CreateAssignment(ctx context.Context, input CreateAssignmentInput) (*types.Assignment, error)
	GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.Assignment, error)
	UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, input UpdateAssignmentInput) (*types.Assignment, error)
	CloneAssignment(ctx context.Context, assignmentID uuid.UUID, clientID, sessionID *uuid.UUID) (*types.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error
	SaveAsTemplate(ctx context.Context, assignmentID uuid.UUID, input SaveTemplateInput) (*types.Template, error)
	GenerateAssignment(ctx context.Context, input GenerateAssignmentInput) (*types.Assignment, error)
}

type assignmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	assignmentRepo repos.AssignmentRepo
	clientRepo     repos.ClientRepo
	sessionRepo    repos.SessionRepo
	templateRepo   repos.TemplateRepo
	userRepo       repos.UserRepo
	generator      GeneratorService
}

func NewAssignmentService(
	db *gorm.DB,
	log *logger.Logger,
	assignmentRepo repos.AssignmentRepo,
	clientRepo repos.ClientRepo,
	sessionRepo repos.SessionRepo,
	templateRepo repos.TemplateRepo,
	userRepo repos.UserRepo,
	generator GeneratorService,
) AssignmentService {
	serviceLog := log.With("service", "AssignmentService")
	return &assignmentService{
		db:             db,
		log:            serviceLog,
		assignmentRepo: assignmentRepo,
		clientRepo:     clientRepo,
		sessionRepo:    sessionRepo,
		templateRepo:   templateRepo,
		userRepo:       userRepo,
		generator:      generator,
	}
}

func (asg *assignmentService) ListAssignments(ctx context.Context, clientID, sessionID *uuid.UUID) ([]*types.Assignment, error) {
	return asg.assignmentRepo.List(ctx, nil, clientID, sessionID)
}

func (asg *assignmentService) CreateAssignment(ctx context.Context, input CreateAssignmentInput) (*types.Assignment, error) {
	therapistID, err := asg.resolveTherapist(ctx, input.TherapistID, input.ClientID)
	if err != nil {
		return nil, err
	}
	assignment := &types.Assignment{
		Title:              input.Title,
		TaskDescription:    input.TaskDescription,
		LearningObjectives: input.LearningObjectives,
		ReflectionPrompts:  input.ReflectionPrompts,
		EstimatedTime:      input.EstimatedTime,
		DifficultyLevel:    input.DifficultyLevel,
		CustomFields:       datatypes.JSON(input.CustomFields),
		Status:             types.AssignmentStatusDraft,
		ClientID:           input.ClientID,
		SessionID:          input.SessionID,
		ParentAssignmentID: input.ParentAssignmentID,
		TherapistID:        therapistID,
	}
	return asg.assignmentRepo.Create(ctx, nil, assignment)
}

// resolveTherapist: caller-provided id, else the client's therapist,
// else the practice's first therapist.
func (asg *assignmentService) resolveTherapist(ctx context.Context, requested *uuid.UUID, clientID uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		return *requested, nil
	}
	if clientID != uuid.Nil {
		client, err := asg.clientRepo.GetByID(ctx, nil, clientID)
		if err == nil {
			return client.TherapistID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, err
		}
	}
	first, err := asg.userRepo.FirstByRole(ctx, nil, types.RoleTherapist)
	if err != nil {
		return uuid.Nil, fmt.Errorf("no therapist available for assignment")
	}
	return first.ID, nil
}

func (asg *assignmentService) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.Assignment, error) {
	assignment, err := asg.assignmentRepo.GetByIDWithRelations(ctx, nil, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}
	return assignment, nil
}

// UpdateAssignment never touches the existing row. It inserts a new row
// with the edited fields, version incremented, and the parent pointer
// anchored to the chain: the edited row's own parent when it was itself
// a derived version, otherwise the edited row itself.
func (asg *assignmentService) UpdateAssignment(ctx context.Context, assignmentID uuid.UUID, input UpdateAssignmentInput) (*types.Assignment, error) {
	existing, err := asg.assignmentRepo.GetByID(ctx, nil, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}

	next := &types.Assignment{
		Title:              fallback(input.Title, existing.Title),
		TaskDescription:    fallback(input.TaskDescription, existing.TaskDescription),
		LearningObjectives: fallback(input.LearningObjectives, existing.LearningObjectives),
		ReflectionPrompts:  fallback(input.ReflectionPrompts, existing.ReflectionPrompts),
		EstimatedTime:      existing.EstimatedTime,
		DifficultyLevel:    fallback(input.DifficultyLevel, existing.DifficultyLevel),
		CustomFields:       existing.CustomFields,
		Status:             existing.Status,
		Version:            existing.Version + 1,
		ClientID:           existing.ClientID,
		SessionID:          existing.SessionID,
		TherapistID:        existing.TherapistID,
	}
	if input.EstimatedTime != nil {
		next.EstimatedTime = input.EstimatedTime
	}
	if len(input.CustomFields) > 0 {
		next.CustomFields = datatypes.JSON(input.CustomFields)
	}
	if existing.ParentAssignmentID != nil {
		next.ParentAssignmentID = existing.ParentAssignmentID
	} else {
		parent := existing.ID
		next.ParentAssignmentID = &parent
	}
	return asg.assignmentRepo.Create(ctx, nil, next)
}

func fallback(value, existing string) string {
	if value != "" {
		return value
	}
	return existing
}

// CloneAssignment duplicates content into a fresh DRAFT pointing at the
// source, optionally re-targeting another client/session.
func (asg *assignmentService) CloneAssignment(ctx context.Context, assignmentID uuid.UUID, clientID, sessionID *uuid.UUID) (*types.Assignment, error) {
	original, err := asg.assignmentRepo.GetByID(ctx, nil, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}

	parent := original.ID
	cloned := &types.Assignment{
		Title:              original.Title + " (Copy)",
		TaskDescription:    original.TaskDescription,
		LearningObjectives: original.LearningObjectives,
		ReflectionPrompts:  original.ReflectionPrompts,
		EstimatedTime:      original.EstimatedTime,
		DifficultyLevel:    original.DifficultyLevel,
		CustomFields:       original.CustomFields,
		Status:             types.AssignmentStatusDraft,
		ParentAssignmentID: &parent,
		ClientID:           original.ClientID,
		SessionID:          original.SessionID,
		TherapistID:        original.TherapistID,
	}
	if clientID != nil && *clientID != uuid.Nil {
		cloned.ClientID = *clientID
	}
	if sessionID != nil && *sessionID != uuid.Nil {
		cloned.SessionID = *sessionID
	}
	return asg.assignmentRepo.Create(ctx, nil, cloned)
}

func (asg *assignmentService) DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	if _, err := asg.assignmentRepo.GetByID(ctx, nil, assignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return err
	}
	return asg.assignmentRepo.Delete(ctx, nil, assignmentID)
}

// SaveAsTemplate snapshots an assignment into the template library. The
// snapshot is client-agnostic: only content fields carry over.
func (asg *assignmentService) SaveAsTemplate(ctx context.Context, assignmentID uuid.UUID, input SaveTemplateInput) (*types.Template, error) {
	assignment, err := asg.assignmentRepo.GetByID(ctx, nil, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment not found: %w", ErrNotFound)
		}
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = types.TemplateStatusPrivate
	}
	if status != types.TemplateStatusPrivate && status != types.TemplateStatusPending {
		return nil, fmt.Errorf("new templates must start as PRIVATE or PENDING: %w", ErrForbidden)
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}

	template := &types.Template{
		Title:              assignment.Title,
		TaskDescription:    assignment.TaskDescription,
		LearningObjectives: assignment.LearningObjectives,
		ReflectionPrompts:  assignment.ReflectionPrompts,
		EstimatedTime:      assignment.EstimatedTime,
		DifficultyLevel:    assignment.DifficultyLevel,
		CustomFields:       assignment.CustomFields,
		Tags:               datatypes.JSON(tagsJSON),
		Status:             status,
		TherapistID:        assignment.TherapistID,
	}
	return asg.templateRepo.Create(ctx, nil, template)
}

// GenerateAssignment resolves the client and session, asks the
// generator for content, and stores the result as a DRAFT.
func (asg *assignmentService) GenerateAssignment(ctx context.Context, input GenerateAssignmentInput) (*types.Assignment, error) {
	client, err := asg.clientRepo.GetByID(ctx, nil, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client or session not found: %w", ErrNotFound)
		}
		return nil, err
	}
	session, err := asg.sessionRepo.GetByID(ctx, nil, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client or session not found: %w", ErrNotFound)
		}
		return nil, err
	}

	therapistID := client.TherapistID
	if input.TherapistID != nil && *input.TherapistID != uuid.Nil {
		therapistID = *input.TherapistID
	} else if first, err := asg.userRepo.FirstByRole(ctx, nil, types.RoleTherapist); err == nil {
		therapistID = first.ID
	}

	generated, err := asg.generator.Generate(ctx,
		ClientProfile{
			Name:         client.Name,
			Age:          client.Age,
			Gender:       client.Gender,
			Condition:    client.Condition,
			TherapyGoals: client.TherapyGoals,
		},
		SessionContext{
			Summary:   session.Summary,
			FocusArea: session.FocusArea,
		},
	)
	if err != nil {
		return nil, err
	}

	assignment := &types.Assignment{
		Title:              generated.Title,
		TaskDescription:    generated.TaskDescription,
		LearningObjectives: generated.LearningObjectives,
		ReflectionPrompts:  generated.ReflectionPrompts,
		Status:             types.AssignmentStatusDraft,
		ClientID:           input.ClientID,
		SessionID:          input.SessionID,
		TherapistID:        therapistID,
	}
	return asg.assignmentRepo.Create(ctx, nil, assignment)
}
