package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

type EmailLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.EmailLog) (*types.EmailLog, error)
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.EmailLog, error)
}

type emailLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmailLogRepo(db *gorm.DB, baseLog *logger.Logger) EmailLogRepo {
	repoLog := baseLog.With("repo", "EmailLogRepo")
	return &emailLogRepo{db: db, log: repoLog}
}

func (er *emailLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.EmailLog) (*types.EmailLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (er *emailLogRepo) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.EmailLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.EmailLog
	if err := transaction.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
