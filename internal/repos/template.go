package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error)
	GetByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error)
	ListVisibleToTherapist(ctx context.Context, tx *gorm.DB, therapistID uuid.UUID) ([]*types.Template, error)
	ListAll(ctx context.Context, tx *gorm.DB, status string) ([]*types.Template, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Template, error)
	Update(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if err := transaction.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}

func (tr *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var result types.Template
	if err := transaction.WithContext(ctx).
		Where("id = ?", templateID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// ListVisibleToTherapist returns the union of the therapist's own
// templates and every approved public one. A therapist never sees
// another therapist's non-approved template.
func (tr *templateRepo) ListVisibleToTherapist(ctx context.Context, tx *gorm.DB, therapistID uuid.UUID) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Preload("Therapist").
		Where("therapist_id = ? OR status = ?", therapistID, types.TemplateStatusApproved).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) ListAll(ctx context.Context, tx *gorm.DB, status string) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	query := transaction.WithContext(ctx).
		Preload("Therapist").
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var results []*types.Template
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Preload("Therapist").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *templateRepo) Update(ctx context.Context, tx *gorm.DB, template *types.Template) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if err := transaction.WithContext(ctx).Save(template).Error; err != nil {
		return nil, err
	}
	return template, nil
}
