package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

type AssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (*types.Assignment, error)
	GetByIDWithRelations(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (*types.Assignment, error)
	List(ctx context.Context, tx *gorm.DB, clientID, sessionID *uuid.UUID) ([]*types.Assignment, error)
	MarkSent(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID, sentAt time.Time) error
	Delete(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	repoLog := baseLog.With("repo", "AssignmentRepo")
	return &assignmentRepo{db: db, log: repoLog}
}

func (ar *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *types.Assignment) (*types.Assignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (ar *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (*types.Assignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Assignment
	if err := transaction.WithContext(ctx).
		Where("id = ?", assignmentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *assignmentRepo) GetByIDWithRelations(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) (*types.Assignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var result types.Assignment
	if err := transaction.WithContext(ctx).
		Preload("Client").
		Preload("Session").
		Preload("Therapist").
		Where("id = ?", assignmentID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (ar *assignmentRepo) List(ctx context.Context, tx *gorm.DB, clientID, sessionID *uuid.UUID) ([]*types.Assignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	query := transaction.WithContext(ctx).
		Preload("Client").
		Preload("Session").
		Order("created_at DESC")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	if sessionID != nil {
		query = query.Where("session_id = ?", *sessionID)
	}
	var results []*types.Assignment
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkSent is the only in-place write on an assignment row: the
// DRAFT→SENT transition after a successful provider call. Content edits
// go through the version chain instead.
func (ar *assignmentRepo) MarkSent(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID, sentAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Assignment{}).
		Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"status":  types.AssignmentStatusSent,
			"sent_at": sentAt,
		}).Error
}

func (ar *assignmentRepo) Delete(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", assignmentID).
		Delete(&types.Assignment{}).Error
}
