package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/artograph/artograph-backend/internal/logger"
	"github.com/artograph/artograph-backend/internal/types"
	"github.com/artograph/artograph-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "artograph", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: database, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Client{},
		&types.Session{},
		&types.Assignment{},
		&types.Template{},
		&types.EmailLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	// Deleting an assignment hard-deletes its send history; derived
	// versions survive with the parent reference cleared.
	stmts := []string{
		`ALTER TABLE "email_log" DROP CONSTRAINT IF EXISTS "fk_email_log_assignment_id"`,
		`ALTER TABLE "email_log"
		 ADD CONSTRAINT "fk_email_log_assignment_id"
		 FOREIGN KEY ("assignment_id")
		 REFERENCES "assignment"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "assignment" DROP CONSTRAINT IF EXISTS "fk_assignment_parent_assignment_id"`,
		`ALTER TABLE "assignment"
		 ADD CONSTRAINT "fk_assignment_parent_assignment_id"
		 FOREIGN KEY ("parent_assignment_id")
		 REFERENCES "assignment"("id")
		 ON DELETE SET NULL`,
	}
	for _, stmt := range stmts {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to configure foreign keys: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
