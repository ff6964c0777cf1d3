package app

import (
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/repos"
)

type Repos struct {
	Skill            repos.SkillRepo
	SkillLevel       repos.SkillLevelRepo
	CourseSkill      repos.CourseSkillRepo
	UserPoints       repos.UserPointsRepo
	AwardLog         repos.AwardLogRepo
	Enrolment        repos.EnrolmentRepo
	CourseCompletion repos.CourseCompletionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Skill:            repos.NewSkillRepo(db, log),
		SkillLevel:       repos.NewSkillLevelRepo(db, log),
		CourseSkill:      repos.NewCourseSkillRepo(db, log),
		UserPoints:       repos.NewUserPointsRepo(db, log),
		AwardLog:         repos.NewAwardLogRepo(db, log),
		Enrolment:        repos.NewEnrolmentRepo(db, log),
		CourseCompletion: repos.NewCourseCompletionRepo(db, log),
	}
}
