package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
	GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error)
	List(ctx context.Context, tx *gorm.DB, clientID *uuid.UUID) ([]*types.Session, error)
	MaxSessionNumber(ctx context.Context, tx *gorm.DB, therapistID, clientID uuid.UUID) (int, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (sr *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var result types.Session
	if err := transaction.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (sr *sessionRepo) List(ctx context.Context, tx *gorm.DB, clientID *uuid.UUID) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	query := transaction.WithContext(ctx).
		Preload("Client").
		Order("session_number DESC")
	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}
	var results []*types.Session
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MaxSessionNumber returns the highest session number recorded for the
// therapist/client pair, or 0 when no session exists yet.
func (sr *sessionRepo) MaxSessionNumber(ctx context.Context, tx *gorm.DB, therapistID, clientID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var max *int
	if err := transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("therapist_id = ? AND client_id = ?", therapistID, clientID).
		Select("MAX(session_number)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
