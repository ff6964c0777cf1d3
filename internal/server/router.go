package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/openlms/skills-backend/internal/handlers"
	"github.com/openlms/skills-backend/internal/logger"
	"github.com/openlms/skills-backend/internal/middleware"
)

type RouterConfig struct {
	Log                *logger.Logger
	AuthMiddleware     *middleware.AuthMiddleware
	EventHandler       *handlers.EventHandler
	SkillHandler       *handlers.SkillHandler
	CourseSkillHandler *handlers.CourseSkillHandler
	PointsHandler      *handlers.PointsHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(cfg.Log))
	router.Use(otelgin.Middleware("skills-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthz", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireServiceToken())

	// Lifecycle events
	api.POST("/events/course-completed", cfg.EventHandler.CourseCompleted)
	api.POST("/events/course-deleted", cfg.EventHandler.CourseDeleted)
	api.POST("/events/user-deleted", cfg.EventHandler.UserDeleted)
	api.POST("/events/user-enrolled", cfg.EventHandler.UserEnrolled)
	api.POST("/events/user-unenrolled", cfg.EventHandler.UserUnenrolled)

	// Skill catalog
	api.POST("/skills", cfg.SkillHandler.Create)
	api.GET("/skills", cfg.SkillHandler.List)
	api.GET("/skills/:id", cfg.SkillHandler.Get)
	api.PUT("/skills/:id", cfg.SkillHandler.Update)
	api.DELETE("/skills/:id", cfg.SkillHandler.Delete)
	api.PATCH("/skills/:id/status", cfg.SkillHandler.UpdateStatus)
	api.POST("/skills/:id/archive", cfg.SkillHandler.Archive)
	api.POST("/skills/:id/activate", cfg.SkillHandler.Activate)
	api.GET("/skills/:id/proficient", cfg.SkillHandler.Proficient)

	// Course bindings
	api.GET("/courses/:courseid/skills", cfg.CourseSkillHandler.ListForCourse)
	api.PUT("/courses/:courseid/skills/:skillid", cfg.CourseSkillHandler.Save)
	api.DELETE("/courses/:courseid/skills/:skillid", cfg.CourseSkillHandler.Disable)

	// User standing
	api.GET("/users/:id/skills", cfg.PointsHandler.Summaries)
	api.GET("/users/:id/skills/:skillid/points", cfg.PointsHandler.Balance)
	api.GET("/users/:id/skills/:skillid/awards", cfg.PointsHandler.Awards)

	return router
}
