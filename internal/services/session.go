package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/types"
)

type CreateSessionInput struct {
	ClientID      uuid.UUID  `json:"clientId"`
	SessionNumber *int       `json:"sessionNumber"`
	Summary       string     `json:"summary"`
	FocusArea     string     `json:"focusArea"`
	TherapistID   *uuid.UUID `json:"therapistId"`
}

type SessionService interface {
	ListSessions(ctx context.Context, clientID *uuid.UUID) ([]*types.Session, error)
	CreateSession(ctx context.Context, input CreateSessionInput) (*types.Session, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.SessionRepo
	clientRepo  repos.ClientRepo
}

func NewSessionService(db *gorm.DB, log *logger.Logger, sessionRepo repos.SessionRepo, clientRepo repos.ClientRepo) SessionService {
	serviceLog := log.With("service", "SessionService")
	return &sessionService{
		db:          db,
		log:         serviceLog,
		sessionRepo: sessionRepo,
		clientRepo:  clientRepo,
	}
}

func (ss *sessionService) ListSessions(ctx context.Context, clientID *uuid.UUID) ([]*types.Session, error) {
	return ss.sessionRepo.List(ctx, nil, clientID)
}

// CreateSession numbers the session automatically when the caller omits
// one: max existing number for the therapist/client pair plus one, or 1
// for a client with no sessions yet.
func (ss *sessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*types.Session, error) {
	client, err := ss.clientRepo.GetByID(ctx, nil, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client not found: %w", ErrNotFound)
		}
		return nil, err
	}

	therapistID := client.TherapistID
	if input.TherapistID != nil && *input.TherapistID != uuid.Nil {
		therapistID = *input.TherapistID
	}

	sessionNumber := 0
	if input.SessionNumber != nil {
		sessionNumber = *input.SessionNumber
	}
	if sessionNumber <= 0 {
		max, err := ss.sessionRepo.MaxSessionNumber(ctx, nil, therapistID, input.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to determine next session number: %w", err)
		}
		sessionNumber = max + 1
	}

	session := &types.Session{
		SessionNumber: sessionNumber,
		Summary:       input.Summary,
		FocusArea:     input.FocusArea,
		ClientID:      input.ClientID,
		TherapistID:   therapistID,
	}
	return ss.sessionRepo.Create(ctx, nil, session)
}
