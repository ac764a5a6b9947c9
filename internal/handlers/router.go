package handlers

import (
	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	progressHandler *ProgressHandler
	tokenParser     TokenParser
	logger          utils.Logger
}

// NewHandlerManager wires handlers to services. A nil tokenParser switches the API to
// header based identity.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	tokenParser TokenParser,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		progressHandler: NewProgressHandler(serviceManager.Submission(), serviceManager.Progress(), logger),
		tokenParser:     tokenParser,
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.tokenParser, hm.logger))
	{
		exercises := v1.Group("/exercises")
		{
			exercises.POST("/:exercise_id/submit", hm.progressHandler.SubmitAnswer)
			exercises.GET("/:exercise_id/progress", hm.progressHandler.GetExerciseProgress)
		}

		lessons := v1.Group("/lessons")
		{
			lessons.GET("/:lesson_id/progress", hm.progressHandler.GetLessonProgress)
			lessons.GET("/:lesson_id/progress/export",
				RequireRole(hm.logger, RoleTeacher, RoleAdmin),
				hm.progressHandler.ExportLessonProgress)
		}
	}
}
