package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProgressHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	progressService   services.ProgressService
}

func NewProgressHandler(
	submissionService services.SubmissionService,
	progressService services.ProgressService,
	logger utils.Logger,
) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		progressService:   progressService,
	}
}

// SubmitAnswer grades an answer and records it in the caller's lesson progress
// @Summary Submit answer
// @Description Grades the answer, scores it with the time bonus and records the attempt
// @Tags exercises
// @Accept json
// @Produce json
// @Param exercise_id path uint true "Exercise ID"
// @Param submission body services.SubmitAnswerRequest true "Answer and time taken in seconds"
// @Success 200 {object} services.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /exercises/{exercise_id}/submit [post]
func (h *ProgressHandler) SubmitAnswer(c *gin.Context) {
	exerciseID, ok := ParseIDParam(c, "exercise_id")
	if !ok {
		return
	}

	userID := h.extractUserID(c)
	if userID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated", nil)
		return
	}

	h.LogRequest(c, "Submitting answer", "exercise_id", exerciseID)

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), exerciseID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExerciseProgress returns the caller's completion, attempt count and score for an exercise
// @Summary Get exercise progress
// @Tags exercises
// @Produce json
// @Param exercise_id path uint true "Exercise ID"
// @Success 200 {object} services.ExerciseProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exercises/{exercise_id}/progress [get]
func (h *ProgressHandler) GetExerciseProgress(c *gin.Context) {
	exerciseID, ok := ParseIDParam(c, "exercise_id")
	if !ok {
		return
	}

	userID := h.extractUserID(c)
	if userID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated", nil)
		return
	}

	resp, err := h.submissionService.GetExerciseProgress(c.Request.Context(), exerciseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLessonProgress returns the caller's progress record and summary for a lesson
// @Summary Get lesson progress
// @Tags lessons
// @Produce json
// @Param lesson_id path uint true "Lesson ID"
// @Success 200 {object} services.LessonProgressResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{lesson_id}/progress [get]
func (h *ProgressHandler) GetLessonProgress(c *gin.Context) {
	lessonID, ok := ParseIDParam(c, "lesson_id")
	if !ok {
		return
	}

	userID := h.extractUserID(c)
	if userID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, CodeUnauthorized, "User not authenticated", nil)
		return
	}

	resp, err := h.progressService.GetLessonProgress(c.Request.Context(), lessonID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportLessonProgress downloads every learner's progress on a lesson as xlsx.
// Teachers and admins only.
// @Summary Export lesson progress
// @Tags lessons
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param lesson_id path uint true "Lesson ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{lesson_id}/progress/export [get]
func (h *ProgressHandler) ExportLessonProgress(c *gin.Context) {
	lessonID, ok := ParseIDParam(c, "lesson_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting lesson progress", "lesson_id", lessonID)

	data, err := h.progressService.ExportLessonProgress(c.Request.Context(), lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("lesson_%d_progress_%s.xlsx", lessonID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
