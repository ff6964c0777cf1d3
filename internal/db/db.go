package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/types"
	"github.com/openlms/skills-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewFromEnv opens the database selected by DB_DRIVER: "postgres" (default)
// or "sqlite". The sqlite driver is pure Go and carries the service in
// single-node deployments and tests.
func NewFromEnv(log *logger.Logger) (*Service, error) {
	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))
	switch driver {
	case "postgres":
		return NewPostgres(log)
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "skills.db", log)
		return NewSQLite(path, log)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
}

func NewPostgres(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	port := utils.GetEnv("POSTGRES_PORT", "5432", log)
	user := utils.GetEnv("POSTGRES_USER", "postgres", log)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	name := utils.GetEnv("POSTGRES_NAME", "skills", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func NewSQLite(path string, log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	serviceLog.Info("Opening sqlite database...", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		serviceLog.Error("Failed to open sqlite database", "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Skill{},
		&types.SkillLevel{},
		&types.CourseSkill{},
		&types.UserPoints{},
		&types.AwardLog{},
		&types.Enrolment{},
		&types.CourseCompletion{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
