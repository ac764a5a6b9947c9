package services

import (
	"context"
	"encoding/json"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/progress"
)

// SubmissionService grades answers and folds them into the caller's lesson progress
type SubmissionService interface {
	Submit(ctx context.Context, exerciseID uint, userID string, req *SubmitAnswerRequest) (*SubmitResult, error)
	GetExerciseProgress(ctx context.Context, exerciseID uint, userID string) (*ExerciseProgressResponse, error)
}

// ProgressService exposes lesson level progress views
type ProgressService interface {
	GetLessonProgress(ctx context.Context, lessonID uint, userID string) (*LessonProgressResponse, error)
	ExportLessonProgress(ctx context.Context, lessonID uint) ([]byte, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type SubmitAnswerRequest struct {
	Answer    json.RawMessage `json:"answer" validate:"required"`
	TimeTaken *int            `json:"time_taken,omitempty" validate:"omitempty,min=0"`
}

type SubmitResult struct {
	IsCorrect       bool             `json:"is_correct"`
	Explanation     *string          `json:"explanation"`
	Score           int              `json:"score"`
	ProgressSummary progress.Summary `json:"progress_summary"`
}

type ExerciseProgressResponse struct {
	ExerciseID uint `json:"exercise_id"`
	progress.ExerciseSummary
}

type LessonProgressResponse struct {
	LessonID uint                  `json:"lesson_id"`
	UserID   string                `json:"user_id"`
	Status   models.ProgressStatus `json:"status"`
	Summary  progress.Summary      `json:"summary"`
	Progress *models.Progress      `json:"progress,omitempty"`
}
