package app

import (
	"ludilearn_backend/docs"
	"ludilearn_backend/internal/config"
	"ludilearn_backend/internal/middleware"
	"ludilearn_backend/internal/model"
	"ludilearn_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// LMS webhook, gated by the shared secret.
	events := router.Group("/api/lms")
	events.Use(middleware.WebhookMiddleware(cfg))
	{
		events.POST("/events", c.event.Receive)
	}

	// Learner routes: the LMS front end proxies these with the learner id
	// header; staff tokens work too for previewing.
	learner := router.Group("/api")
	learner.Use(middleware.TryAuthMiddleware(cfg), middleware.LearnerMiddleware())
	{
		learner.GET("/courses/:courseId/sections/:sectionId/element", c.element.GetGameElement)
		learner.POST("/courses/:courseId/avatar/equip", c.element.EquipItem)
		learner.POST("/questionnaire", c.questionnaire.Submit)
		learner.GET("/profile", c.questionnaire.Profile)
		learner.GET("/worlds/:world/items", c.element.WorldItems)
	}

	// Staff routes.
	staff := router.Group("/api")
	staff.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Teacher))
	{
		staff.PUT("/courses/:courseId/settings", c.settings.UpdateSettings)
		staff.PUT("/courses/:courseId/sections/:sectionId/type", c.settings.SetSectionType)
		staff.PUT("/elements/:id/params/:name", c.element.UpdateSectionParameter)
		staff.PUT("/elements/:id/modules/:moduleId/params/:name", c.element.UpdateModuleParameter)
		staff.GET("/courses/:courseId/report", c.report.CourseReport)
		staff.PUT("/worlds/:world/items/:theme/:slot/asset", c.element.UploadItemAsset)
	}
}
