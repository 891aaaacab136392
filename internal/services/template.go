package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/requestdata"
	"github.com/artograph/artograph-backend/internal/types"
)

type CreateTemplateInput struct {
	Title              string          `json:"title" binding:"required"`
	TaskDescription    string          `json:"taskDescription"`
	LearningObjectives string          `json:"learningObjectives"`
	ReflectionPrompts  string          `json:"reflectionPrompts"`
	EstimatedTime      *int            `json:"estimatedTime"`
	DifficultyLevel    string          `json:"difficultyLevel"`
	CustomFields       json.RawMessage `json:"customFields"`
	Tags               []string        `json:"tags"`
	Status             string          `json:"status"`
}

type UpdateTemplateInput struct {
	Title              *string         `json:"title"`
	TaskDescription    *string         `json:"taskDescription"`
	LearningObjectives *string         `json:"learningObjectives"`
	ReflectionPrompts  *string         `json:"reflectionPrompts"`
	EstimatedTime      *int            `json:"estimatedTime"`
	DifficultyLevel    *string         `json:"difficultyLevel"`
	CustomFields       json.RawMessage `json:"customFields"`
	Tags               []string        `json:"tags"`
	Status             *string         `json:"status"`
}

type ListTemplatesInput struct {
	Status string
	Tags   []string
}

type TemplateService interface {
	CreateTemplate(ctx context.Context, input CreateTemplateInput) (*types.Template, error)
	ListTemplates(ctx context.Context, input ListTemplatesInput) ([]*types.Template, error)
	GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error)
	UpdateTemplate(ctx context.Context, templateID uuid.UUID, input UpdateTemplateInput) (*types.Template, error)
}

type templateService struct {
	db           *gorm.DB
	log          *logger.Logger
	templateRepo repos.TemplateRepo
}

func NewTemplateService(db *gorm.DB, log *logger.Logger, templateRepo repos.TemplateRepo) TemplateService {
	serviceLog := log.With("service", "TemplateService")
	return &templateService{db: db, log: serviceLog, templateRepo: templateRepo}
}

func (ts *templateService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*types.Template, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required: %w", ErrUnauthorized)
	}

	status := input.Status
	if status == "" {
		status = types.TemplateStatusPrivate
	}
	if status != types.TemplateStatusPrivate && status != types.TemplateStatusPending {
		return nil, fmt.Errorf("new templates must start as PRIVATE or PENDING: %w", ErrForbidden)
	}

	template := &types.Template{
		Title:              input.Title,
		TaskDescription:    input.TaskDescription,
		LearningObjectives: input.LearningObjectives,
		ReflectionPrompts:  input.ReflectionPrompts,
		EstimatedTime:      input.EstimatedTime,
		DifficultyLevel:    input.DifficultyLevel,
		Status:             status,
		TherapistID:        rd.UserID,
	}
	if len(input.CustomFields) > 0 {
		template.CustomFields = datatypes.JSON(input.CustomFields)
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	template.Tags = datatypes.JSON(tagsJSON)

	return ts.templateRepo.Create(ctx, nil, template)
}

// ListTemplates scopes results by the caller's role: therapists see
// their own templates plus approved ones, admins see everything with an
// optional status filter, and anyone else sees approved only. Tag
// filtering is any-of.
func (ts *templateService) ListTemplates(ctx context.Context, input ListTemplatesInput) ([]*types.Template, error) {
	rd := requestdata.GetRequestData(ctx)

	var (
		results []*types.Template
		err     error
	)
	switch {
	case rd != nil && rd.Role == types.RoleAdmin:
		results, err = ts.templateRepo.ListAll(ctx, nil, input.Status)
	case rd != nil && rd.Role == types.RoleTherapist:
		results, err = ts.templateRepo.ListVisibleToTherapist(ctx, nil, rd.UserID)
	default:
		results, err = ts.templateRepo.ListByStatus(ctx, nil, types.TemplateStatusApproved)
	}
	if err != nil {
		return nil, err
	}

	if len(input.Tags) > 0 {
		results = filterTemplatesByTags(results, input.Tags)
	}
	return results, nil
}

func filterTemplatesByTags(templates []*types.Template, wanted []string) []*types.Template {
	filtered := make([]*types.Template, 0, len(templates))
	for _, template := range templates {
		var tags []string
		if len(template.Tags) > 0 {
			if err := json.Unmarshal(template.Tags, &tags); err != nil {
				continue
			}
		}
		if hasAnyTag(tags, wanted) {
			filtered = append(filtered, template)
		}
	}
	return filtered
}

func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func (ts *templateService) GetTemplate(ctx context.Context, templateID uuid.UUID) (*types.Template, error) {
	rd := requestdata.GetRequestData(ctx)
	template, err := ts.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if template.Status != types.TemplateStatusApproved {
		if rd == nil {
			return nil, fmt.Errorf("authentication required: %w", ErrUnauthorized)
		}
		if rd.Role != types.RoleAdmin && template.TherapistID != rd.UserID {
			return nil, fmt.Errorf("template is not visible to this user: %w", ErrForbidden)
		}
	}
	return template, nil
}

// UpdateTemplate handles both content edits and the moderation state
// machine. Status transitions are the sensitive part: only an admin may
// approve or reject, and only the owning therapist may submit their own
// template for review.
func (ts *templateService) UpdateTemplate(ctx context.Context, templateID uuid.UUID, input UpdateTemplateInput) (*types.Template, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("authentication required: %w", ErrUnauthorized)
	}

	template, err := ts.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template not found: %w", ErrNotFound)
		}
		return nil, err
	}

	isAdmin := rd.Role == types.RoleAdmin
	isOwner := template.TherapistID == rd.UserID

	if input.Status != nil && *input.Status != template.Status {
		switch *input.Status {
		case types.TemplateStatusApproved, types.TemplateStatusRejected:
			if !isAdmin {
				return nil, fmt.Errorf("only admins can approve or reject templates: %w", ErrForbidden)
			}
			if *input.Status == types.TemplateStatusApproved {
				now := time.Now()
				template.ApprovedAt = &now
				approver := rd.UserID
				template.ApprovedBy = &approver
			}
		case types.TemplateStatusPending:
			if !isOwner || rd.Role != types.RoleTherapist {
				return nil, fmt.Errorf("only the owning therapist can submit a template for review: %w", ErrForbidden)
			}
		case types.TemplateStatusPrivate:
			if !isOwner && !isAdmin {
				return nil, fmt.Errorf("template can only be withdrawn by its owner or an admin: %w", ErrForbidden)
			}
		default:
			return nil, fmt.Errorf("unknown template status %q", *input.Status)
		}
		template.Status = *input.Status
	}

	if !isOwner && !isAdmin {
		return nil, fmt.Errorf("template can only be edited by its owner or an admin: %w", ErrForbidden)
	}

	if input.Title != nil {
		template.Title = *input.Title
	}
	if input.TaskDescription != nil {
		template.TaskDescription = *input.TaskDescription
	}
	if input.LearningObjectives != nil {
		template.LearningObjectives = *input.LearningObjectives
	}
	if input.ReflectionPrompts != nil {
		template.ReflectionPrompts = *input.ReflectionPrompts
	}
	if input.EstimatedTime != nil {
		template.EstimatedTime = input.EstimatedTime
	}
	if input.DifficultyLevel != nil {
		template.DifficultyLevel = *input.DifficultyLevel
	}
	if len(input.CustomFields) > 0 {
		template.CustomFields = datatypes.JSON(input.CustomFields)
	}
	if input.Tags != nil {
		tagsJSON, err := json.Marshal(input.Tags)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}
		template.Tags = datatypes.JSON(tagsJSON)
	}

	return ts.templateRepo.Update(ctx, nil, template)
}
