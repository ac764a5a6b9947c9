package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/lesson-progress-service/internal/progress"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, exerciseID uint, userID string, req *services.SubmitAnswerRequest) (*services.SubmitResult, error) {
	args := m.Called(ctx, exerciseID, userID, req)
	if result, ok := args.Get(0).(*services.SubmitResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionService) GetExerciseProgress(ctx context.Context, exerciseID uint, userID string) (*services.ExerciseProgressResponse, error) {
	args := m.Called(ctx, exerciseID, userID)
	if resp, ok := args.Get(0).(*services.ExerciseProgressResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) GetLessonProgress(ctx context.Context, lessonID uint, userID string) (*services.LessonProgressResponse, error) {
	args := m.Called(ctx, lessonID, userID)
	if resp, ok := args.Get(0).(*services.LessonProgressResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProgressService) ExportLessonProgress(ctx context.Context, lessonID uint) ([]byte, error) {
	args := m.Called(ctx, lessonID)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

type stubServiceManager struct {
	submission *MockSubmissionService
	progress   *MockProgressService
}

func (s *stubServiceManager) Submission() services.SubmissionService { return s.submission }
func (s *stubServiceManager) Progress() services.ProgressService     { return s.progress }
func (s *stubServiceManager) Close(context.Context) error             { return nil }

func setupRouter(parser TokenParser) (*gin.Engine, *stubServiceManager) {
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	manager := &stubServiceManager{
		submission: &MockSubmissionService{},
		progress:   &MockProgressService{},
	}

	router := gin.New()
	router.Use(RequestIDMiddleware())
	NewHandlerManager(manager, parser, logger).SetupRoutes(router)
	return router, manager
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var (
	asLearner = map[string]string{UserIDHeader: "user-42"}
	asTeacher = map[string]string{UserIDHeader: "teacher-1", UserRolesHeader: "Teacher"}
)

func TestSubmitAnswer_Success(t *testing.T) {
	router, manager := setupRouter(nil)
	timeTaken := 15
	manager.submission.On("Submit", mock.Anything, uint(7), "user-42", mock.MatchedBy(func(req *services.SubmitAnswerRequest) bool {
		return string(req.Answer) == `"dog"` && req.TimeTaken != nil && *req.TimeTaken == timeTaken
	})).Return(&services.SubmitResult{
		IsCorrect:       true,
		Score:           11,
		ProgressSummary: progress.Summary{TotalScore: 11, PercentComplete: 100, Completed: true},
	}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/exercises/7/submit", `{"answer":"dog","time_taken":15}`, asLearner)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["is_correct"])
	assert.Equal(t, float64(11), body["score"])
	assert.Nil(t, body["explanation"])
	summary := body["progress_summary"].(map[string]interface{})
	assert.Equal(t, true, summary["completed"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestSubmitAnswer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"exercise not found", services.ErrExerciseNotFound, http.StatusNotFound, CodeNotFound},
		{"invalid answer shape", services.ErrInvalidAnswerShape, http.StatusBadRequest, CodeValidation},
		{"validation errors", services.ValidationErrors{{Field: "answer", Message: "answer is required"}}, http.StatusBadRequest, CodeValidation},
		{"unknown exercise type", services.NewIntegrityError(7, "undecodable content", services.ErrUnknownExerciseType), http.StatusInternalServerError, CodeIntegrity},
		{"retries exhausted", errors.Join(services.ErrPersistenceFailure, services.ErrConflict, repositories.ErrConflict), http.StatusServiceUnavailable, CodeConflict},
		{"persistence failure", errors.Join(services.ErrPersistenceFailure, errors.New("connection reset")), http.StatusInternalServerError, CodePersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, manager := setupRouter(nil)
			manager.submission.On("Submit", mock.Anything, uint(7), "user-42", mock.Anything).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/api/v1/exercises/7/submit", `{"answer":"dog"}`, asLearner)
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestSubmitAnswer_InvalidExerciseID(t *testing.T) {
	router, manager := setupRouter(nil)

	for _, id := range []string{"abc", "0", "-3", "1.5"} {
		w := doRequest(router, http.MethodPost, "/api/v1/exercises/"+id+"/submit", `{"answer":"dog"}`, asLearner)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
	manager.submission.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitAnswer_MalformedBody(t *testing.T) {
	router, manager := setupRouter(nil)

	w := doRequest(router, http.MethodPost, "/api/v1/exercises/7/submit", `{"answer":`, asLearner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	manager.submission.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing user header", func(t *testing.T) {
		router, _ := setupRouter(nil)
		w := doRequest(router, http.MethodGet, "/api/v1/exercises/7/progress", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer token resolved by parser", func(t *testing.T) {
		parser := func(token string) (Identity, error) {
			if token == "good-token" {
				return Identity{UserID: "casdoor-user"}, nil
			}
			return Identity{}, errors.New("bad signature")
		}
		router, manager := setupRouter(parser)
		manager.submission.On("GetExerciseProgress", mock.Anything, uint(7), "casdoor-user").
			Return(&services.ExerciseProgressResponse{ExerciseID: 7}, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/exercises/7/progress", "", map[string]string{"Authorization": "Bearer good-token"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/exercises/7/progress", "", map[string]string{"Authorization": "Bearer forged"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/exercises/7/progress", "", asLearner)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetExerciseProgress_Handler(t *testing.T) {
	router, manager := setupRouter(nil)
	manager.submission.On("GetExerciseProgress", mock.Anything, uint(7), "user-42").
		Return(&services.ExerciseProgressResponse{
			ExerciseID:      7,
			ExerciseSummary: progress.ExerciseSummary{Completed: true, Attempts: 2, Score: 10},
		}, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/exercises/7/progress", "", asLearner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exercise_id":7,"completed":true,"attempts":2,"score":10}`, w.Body.String())
}

func TestGetLessonProgress_Handler(t *testing.T) {
	router, manager := setupRouter(nil)
	manager.progress.On("GetLessonProgress", mock.Anything, uint(3), "user-42").Return(nil, services.ErrLessonNotFound)

	w := doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress", "", asLearner)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Lesson not found", resp.Message)
}

func TestExportLessonProgress_Handler(t *testing.T) {
	router, manager := setupRouter(nil)
	manager.progress.On("ExportLessonProgress", mock.Anything, uint(3)).Return([]byte("xlsx-bytes"), nil)

	w := doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress/export", "", asTeacher)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "lesson_3_progress_")
	assert.Equal(t, "xlsx-bytes", w.Body.String())
}

func TestExportLessonProgress_RequiresStaffRole(t *testing.T) {
	t.Run("learner header", func(t *testing.T) {
		router, manager := setupRouter(nil)

		w := doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress/export", "", asLearner)
		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, CodeForbidden, resp.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress/export", "",
			map[string]string{UserIDHeader: "user-42", UserRolesHeader: "student, reader"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		manager.progress.AssertNotCalled(t, "ExportLessonProgress", mock.Anything, mock.Anything)
	})

	t.Run("roles from token", func(t *testing.T) {
		parser := func(token string) (Identity, error) {
			switch token {
			case "admin-token":
				return Identity{UserID: "org/root", Roles: []string{RoleAdmin}}, nil
			case "learner-token":
				return Identity{UserID: "org/kid"}, nil
			}
			return Identity{}, errors.New("bad signature")
		}
		router, manager := setupRouter(parser)
		manager.progress.On("ExportLessonProgress", mock.Anything, uint(3)).Return([]byte("xlsx-bytes"), nil)

		w := doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress/export", "", map[string]string{"Authorization": "Bearer learner-token"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress/export", "", map[string]string{"Authorization": "Bearer admin-token"})
		assert.Equal(t, http.StatusOK, w.Code)
		manager.progress.AssertNumberOfCalls(t, "ExportLessonProgress", 1)
	})

	t.Run("learners still read their own progress", func(t *testing.T) {
		router, manager := setupRouter(nil)
		manager.progress.On("GetLessonProgress", mock.Anything, uint(3), "user-42").
			Return(&services.LessonProgressResponse{LessonID: 3, UserID: "user-42"}, nil)

		w := doRequest(router, http.MethodGet, "/api/v1/lessons/3/progress", "", asLearner)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestParseRoles(t *testing.T) {
	assert.Equal(t, []string{"teacher", "admin"}, parseRoles(" Teacher ,ADMIN,,"))
	assert.Nil(t, parseRoles(""))
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(nil)
	w := doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
