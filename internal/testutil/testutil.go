// Package testutil holds shared fixtures for service and handler tests.
// Tests run against an in-memory sqlite database migrated from the same
// model types as production.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
)

// NewTestDB opens a fresh in-memory database per test. The shared-cache
// name is unique so parallel tests never see each other's rows.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Client{},
		&types.Session{},
		&types.Assignment{},
		&types.Template{},
		&types.EmailLog{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb
}

func NewTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func SeedUser(t *testing.T, gdb *gorm.DB, role, email, name string) *types.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &types.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Role:     role,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func SeedTherapist(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	return SeedUser(t, gdb, types.RoleTherapist, fmt.Sprintf("therapist-%s@example.com", uuid.NewString()[:8]), "Test Therapist")
}

func SeedAdmin(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	return SeedUser(t, gdb, types.RoleAdmin, fmt.Sprintf("admin-%s@example.com", uuid.NewString()[:8]), "Test Admin")
}

func SeedClient(t *testing.T, gdb *gorm.DB, therapistID uuid.UUID) *types.Client {
	t.Helper()
	client := &types.Client{
		Name:        "Test Client",
		Email:       fmt.Sprintf("client-%s@example.com", uuid.NewString()[:8]),
		TherapistID: therapistID,
	}
	if err := gdb.Create(client).Error; err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return client
}

func SeedSession(t *testing.T, gdb *gorm.DB, clientID, therapistID uuid.UUID, number int) *types.Session {
	t.Helper()
	session := &types.Session{
		ClientID:      clientID,
		TherapistID:   therapistID,
		SessionNumber: number,
		Summary:       "Weekly check-in",
	}
	if err := gdb.Create(session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

func SeedAssignment(t *testing.T, gdb *gorm.DB, clientID, sessionID, therapistID uuid.UUID) *types.Assignment {
	t.Helper()
	assignment := &types.Assignment{
		Title:              "Thought Record Practice",
		TaskDescription:    "Track automatic thoughts each evening.",
		LearningObjectives: "Recognize thinking patterns",
		ReflectionPrompts:  "What surprised you?",
		ClientID:           clientID,
		SessionID:          sessionID,
		TherapistID:        therapistID,
	}
	if err := gdb.Create(assignment).Error; err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return assignment
}
