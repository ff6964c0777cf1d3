package app

import (
	"gorm.io/gorm"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/services"
)

type Services struct {
	Registry     *services.Registry
	CourseMethod *services.CourseCompletionMethod
	Points       services.PointsService
	Catalog      services.CatalogService
	Reconciler   services.ReconcilerService
	Events       services.EventService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos) Services {
	log.Info("Wiring services...")

	pointsService := services.NewPointsService(db, log, reposet.Skill, reposet.SkillLevel, reposet.UserPoints, reposet.AwardLog, reposet.Enrolment, reposet.CourseCompletion)
	courseMethod := services.NewCourseCompletionMethod(db, log, reposet.Skill, reposet.SkillLevel, reposet.CourseSkill, reposet.AwardLog, pointsService)
	registry := services.NewRegistry(courseMethod)
	catalogService := services.NewCatalogService(db, log, registry, reposet.Skill, reposet.SkillLevel, reposet.CourseSkill, reposet.UserPoints, reposet.AwardLog)
	reconcilerService := services.NewReconcilerService(db, log, registry, reposet.Enrolment, reposet.CourseCompletion)
	eventService := services.NewEventService(db, log, registry, reconcilerService, pointsService, reposet.Enrolment, reposet.CourseCompletion)

	return Services{
		Registry:     registry,
		CourseMethod: courseMethod,
		Points:       pointsService,
		Catalog:      catalogService,
		Reconciler:   reconcilerService,
		Events:       eventService,
	}
}
