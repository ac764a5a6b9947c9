package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Error codes returned alongside ErrorResponse
const (
	CodeValidation     = "VALIDATION_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeIntegrity      = "EXERCISE_INTEGRITY_FAULT"
	CodeConflict       = "PROGRESS_CONFLICT"
	CodePersistence    = "PERSISTENCE_FAILURE"
	CodeInternal       = "INTERNAL_ERROR"
	CodeInvalidRequest = "INVALID_REQUEST"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetString(requestIDKey),
		"user_id", h.extractUserID(c),
		"timestamp", time.Now().Format(time.RFC3339),
	}
	fields = append(fields, additionalFields...)

	h.logger.Info(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetString(requestIDKey),
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.LogError(err, message, fields...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetString(requestIDKey),
		"user_id", h.extractUserID(c),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.logger.Warn(message, fields...)
}

func (h *BaseHandler) extractUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
		Code:    code,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode)
	}

	c.AbortWithStatusJSON(statusCode, errorResp)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", err, validationErrors)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", err, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, notFoundMessage(err), err)
	case services.IsIntegrity(err):
		h.RespondWithError(c, http.StatusInternalServerError, CodeIntegrity, "Exercise cannot be graded", err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusServiceUnavailable, CodeConflict, "Progress is being updated concurrently, please retry", err)
	case services.IsPersistence(err):
		h.RespondWithError(c, http.StatusInternalServerError, CodePersistence, "Failed to access progress storage", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrExerciseNotFound):
		return "Exercise not found"
	case errors.Is(err, services.ErrLessonNotFound):
		return "Lesson not found"
	default:
		return "Resource not found"
	}
}
