package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  //1) Get and Set Environment Variables
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "wayfarer", log)

  //2) Construct DSN From Environment Variables
  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  //3) Attempt DB Connection
  log.Info("Attempting to connect to Postgres DB now...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres DB", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres DB: %w", err)
  }
  log.Info("Successfully Connected to Postgres DB :)")

  //4) Enable uuid-ossp Extension
  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension :(", "error", err)
    return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Starting AutoMigrateAll for all GORM models now...")

  err := s.db.AutoMigrate(
    &types.User{},
    &types.AuthSession{},
    &types.Chat{},
    &types.ChatMessage{},
    &types.TripProfile{},
  )
  if err != nil {
    s.log.Error("AutoMigrateAll failed for Base Tables :(", "error", err)
    return err
  }
  s.log.Info("AutoMigrateAll completed successfully for Base Tables :)")

  s.log.Info("Configuring Foreign Key Relationships for Base Tables now...")
  if err := s.addConstraint("auth_session", "fk_auth_session_user_id", "user_id", "user", "id", "CASCADE"); err != nil {
    return err
  }
  if err := s.addConstraint("chat", "fk_chat_user_id", "user_id", "user", "id", "CASCADE"); err != nil {
    return err
  }
  if err := s.addConstraint("chat_message", "fk_chat_message_chat_id", "chat_id", "chat", "id", "CASCADE"); err != nil {
    return err
  }
  if err := s.addConstraint("trip_profile", "fk_trip_profile_chat_id", "chat_id", "chat", "id", "CASCADE"); err != nil {
    return err
  }
  s.log.Info("Successfully Added Foreign Key Relationships to Base Tables :)")

  return nil
}

// addConstraint drops and recreates the named FK so migration stays
// re-runnable on an already provisioned database.
func (s *PostgresService) addConstraint(table, name, column, refTable, refColumn, onDelete string) error {
  if err := s.db.Exec(fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, table, name)).Error; err != nil {
    return fmt.Errorf("failed to drop %s: %w", name, err)
  }
  stmt := fmt.Sprintf(
    `ALTER TABLE %q ADD CONSTRAINT %q FOREIGN KEY (%q) REFERENCES %q (%q) ON DELETE %s`,
    table, name, column, refTable, refColumn, onDelete,
  )
  if err := s.db.Exec(stmt).Error; err != nil {
    return fmt.Errorf("failed to add %s: %w", name, err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
