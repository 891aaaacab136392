package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

type ClientRepo interface {
	Create(ctx context.Context, tx *gorm.DB, client *types.Client) (*types.Client, error)
	GetByID(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) (*types.Client, error)
	GetByIDWithHistory(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) (*types.Client, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Client, error)
	Update(ctx context.Context, tx *gorm.DB, client *types.Client) (*types.Client, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	repoLog := baseLog.With("repo", "ClientRepo")
	return &clientRepo{db: db, log: repoLog}
}

func (cr *clientRepo) Create(ctx context.Context, tx *gorm.DB, client *types.Client) (*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

func (cr *clientRepo) GetByID(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) (*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Client
	if err := transaction.WithContext(ctx).
		Where("id = ?", clientID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// GetByIDWithHistory loads the client together with their sessions
// (newest first) and each session's assignments, for the client detail
// view.
func (cr *clientRepo) GetByIDWithHistory(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) (*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var result types.Client
	if err := transaction.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("session_number DESC")
		}).
		Preload("Sessions.Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", clientID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *clientRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Client
	if err := transaction.WithContext(ctx).
		Preload("Sessions", func(db *gorm.DB) *gorm.DB {
			return db.Order("session_number DESC")
		}).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *clientRepo) Update(ctx context.Context, tx *gorm.DB, client *types.Client) (*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Save(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}
