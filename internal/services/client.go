package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/normalization"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/requestdata"
	"github.com/artograph/artograph-backend/internal/types"
)

type CreateClientInput struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Age          *int       `json:"age"`
	Gender       string     `json:"gender"`
	Condition    string     `json:"condition"`
	TherapyGoals string     `json:"therapyGoals"`
	TherapistID  *uuid.UUID `json:"therapistId"`
}

type UpdateClientInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Age          *int   `json:"age"`
	Gender       string `json:"gender"`
	Condition    string `json:"condition"`
	TherapyGoals string `json:"therapyGoals"`
}

type ClientService interface {
	ListClients(ctx context.Context) ([]*types.Client, error)
	CreateClient(ctx context.Context, input CreateClientInput) (*types.Client, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*types.Client, error)
	UpdateClient(ctx context.Context, clientID uuid.UUID, input UpdateClientInput) (*types.Client, error)
}

type clientService struct {
	db         *gorm.DB
	log        *logger.Logger
	clientRepo repos.ClientRepo
	userRepo   repos.UserRepo
}

func NewClientService(db *gorm.DB, log *logger.Logger, clientRepo repos.ClientRepo, userRepo repos.UserRepo) ClientService {
	serviceLog := log.With("service", "ClientService")
	return &clientService{
		db:         db,
		log:        serviceLog,
		clientRepo: clientRepo,
		userRepo:   userRepo,
	}
}

func (cs *clientService) ListClients(ctx context.Context) ([]*types.Client, error) {
	return cs.clientRepo.List(ctx, nil)
}

func (cs *clientService) CreateClient(ctx context.Context, input CreateClientInput) (*types.Client, error) {
	if normalization.TrimInputString(input.Name) == "" {
		return nil, fmt.Errorf("a client name is required")
	}

	therapistID, err := cs.resolveTherapist(ctx, input.TherapistID)
	if err != nil {
		return nil, err
	}

	client := &types.Client{
		Name:         normalization.TrimInputString(input.Name),
		Email:        normalization.ParseInputString(input.Email),
		Age:          input.Age,
		Gender:       input.Gender,
		Condition:    input.Condition,
		TherapyGoals: input.TherapyGoals,
		TherapistID:  therapistID,
	}
	return cs.clientRepo.Create(ctx, nil, client)
}

// resolveTherapist picks the owning therapist for a new client: the one
// the caller named, else the practice's first therapist, creating the
// default account when the database is empty.
func (cs *clientService) resolveTherapist(ctx context.Context, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		return *requested, nil
	}
	first, err := cs.userRepo.FirstByRole(ctx, nil, types.RoleTherapist)
	if err == nil {
		return first.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, fmt.Errorf("failed to look up therapist: %w", err)
	}

	cs.log.Warn("No therapist exists yet, creating default therapist account")
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash default password")
	}
	therapist := &types.User{
		ID:       uuid.New(),
		Email:    "therapist@example.com",
		Password: string(hashed),
		Name:     "Default Therapist",
		Role:     types.RoleTherapist,
	}
	if _, err := cs.userRepo.Create(ctx, nil, therapist); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create default therapist: %w", err)
	}
	return therapist.ID, nil
}

// GetClient enforces ownership: a therapist may only open their own
// clients, an admin may open anyone's.
func (cs *clientService) GetClient(ctx context.Context, clientID uuid.UUID) (*types.Client, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	client, err := cs.clientRepo.GetByIDWithHistory(ctx, nil, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if rd.Role == types.RoleTherapist && client.TherapistID != rd.UserID {
		return nil, ErrForbidden
	}
	return client, nil
}

func (cs *clientService) UpdateClient(ctx context.Context, clientID uuid.UUID, input UpdateClientInput) (*types.Client, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || (rd.Role != types.RoleTherapist && rd.Role != types.RoleAdmin) {
		return nil, ErrUnauthorized
	}
	client, err := cs.clientRepo.GetByID(ctx, nil, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client not found: %w", ErrNotFound)
		}
		return nil, err
	}

	if input.Name != "" {
		client.Name = normalization.TrimInputString(input.Name)
	}
	if input.Email != "" {
		client.Email = normalization.ParseInputString(input.Email)
	}
	if input.Age != nil {
		client.Age = input.Age
	}
	if input.Gender != "" {
		client.Gender = input.Gender
	}
	if input.Condition != "" {
		client.Condition = input.Condition
	}
	if input.TherapyGoals != "" {
		client.TherapyGoals = input.TherapyGoals
	}
	return cs.clientRepo.Update(ctx, nil, client)
}
