package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/db"
	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/repos"
	"github.com/artograph/artograph-backend/internal/types"
)

// Seeds one therapist and one admin when none exist, so foreign keys
// resolve on a fresh database. Run once after the first migration.
func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	userRepo := repos.NewUserRepo(postgresService.DB(), log)

	ctx := context.Background()
	if err := ensureUser(ctx, userRepo, types.RoleTherapist, "therapist@example.com", "password123", "Default Therapist", log); err != nil {
		log.Fatal("Failed to seed therapist", "error", err)
	}
	if err := ensureUser(ctx, userRepo, types.RoleAdmin, "admin@example.com", "admin123", "Admin User", log); err != nil {
		log.Fatal("Failed to seed admin", "error", err)
	}
	log.Info("Setup complete")
}

func ensureUser(ctx context.Context, userRepo repos.UserRepo, role, email, password, name string, log *logger.Logger) error {
	existing, err := userRepo.FirstByRole(ctx, nil, role)
	if err == nil && existing != nil {
		log.Info("User already exists for role", "role", role)
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = userRepo.Create(ctx, nil, &types.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Role:     role,
	})
	if err != nil {
		return err
	}
	log.Info("Created default user", "role", role)
	return nil
}
