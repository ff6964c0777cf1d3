package testkit

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openlms/skills-backend/internal/types"
)

// OpenTestDB returns an isolated in-memory database migrated with the full
// schema.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&types.Skill{},
		&types.SkillLevel{},
		&types.CourseSkill{},
		&types.UserPoints{},
		&types.AwardLog{},
		&types.Enrolment{},
		&types.CourseCompletion{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
