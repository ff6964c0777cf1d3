package app

import (
	"github.com/gin-gonic/gin"

	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthMiddleware:     middlewareset.Auth,
		EventHandler:       handlerset.Event,
		SkillHandler:       handlerset.Skill,
		CourseSkillHandler: handlerset.CourseSkill,
		PointsHandler:      handlerset.Points,
		AllowOrigins:       cfg.AllowOrigins,
	})
}
