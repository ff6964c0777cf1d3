package app

import (
	"github.com/openlms/skills-backend/internal/handlers"
	"github.com/openlms/skills-backend/internal/logger"
)

type Handlers struct {
	Event       *handlers.EventHandler
	Skill       *handlers.SkillHandler
	CourseSkill *handlers.CourseSkillHandler
	Points      *handlers.PointsHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Event:       handlers.NewEventHandler(log, serviceset.Events),
		Skill:       handlers.NewSkillHandler(log, serviceset.Catalog, serviceset.Points),
		CourseSkill: handlers.NewCourseSkillHandler(log, serviceset.CourseMethod, serviceset.Reconciler),
		Points:      handlers.NewPointsHandler(log, serviceset.Points),
	}
}
