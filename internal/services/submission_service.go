package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"gorm.io/datatypes"

	apperrors "github.com/SAP-F-2025/lesson-progress-service/internal/errors"
	"github.com/SAP-F-2025/lesson-progress-service/internal/grading"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/progress"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/scoring"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
)

// RetryPolicy bounds the re-read and re-apply loop run when a progress save loses a race
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  5,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
	}
}

type submissionService struct {
	repo      repositories.Repository
	events    ProgressEventService
	validator *validator.Validator
	logger    *slog.Logger
	opLogger  *ServiceLogger
	retrier   retry.Retry[*savedProgress]
	now       func() time.Time
}

// savedProgress is the record as persisted plus what changed in this submission
type savedProgress struct {
	record            models.Progress
	attemptNo         int
	exerciseCompleted bool
	lessonCompleted   bool
}

func NewSubmissionService(
	repo repositories.Repository,
	events ProgressEventService,
	validator *validator.Validator,
	logger *slog.Logger,
	policy RetryPolicy,
) SubmissionService {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &submissionService{
		repo:      repo,
		events:    events,
		validator: validator,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "lesson-progress-service", Component: "submission"}),
		retrier: retry.New[*savedProgress](retry.Config{
			MaxAttempts:   policy.MaxAttempts,
			InitialDelay:  policy.InitialDelay,
			MaxDelay:      policy.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   repositories.IsConflictError,
		}),
		now: time.Now,
	}
}

// ===== SUBMISSION =====

func (s *submissionService) Submit(ctx context.Context, exerciseID uint, userID string, req *SubmitAnswerRequest) (result *SubmitResult, err error) {
	op := s.opLogger.WithOperation(ctx, "submit_answer", userID)
	defer func() { op.LogResult(exerciseID, "exercise", err) }()

	s.logger.Info("Submitting answer",
		"exercise_id", exerciseID,
		"user_id", userID)

	if req == nil {
		return nil, ValidationErrors{*apperrors.NewValidationError("answer", "is required", nil)}
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.TimeTaken != nil && *req.TimeTaken < 0 {
		return nil, ErrNegativeTimeTaken
	}

	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	content, err := grading.DecodeExercise(exercise)
	if err != nil {
		return nil, NewIntegrityError(exercise.ID, "undecodable content", err)
	}

	checked, err := grading.Check(content, req.Answer)
	if err != nil {
		if errors.Is(err, grading.ErrInvalidAnswerShape) {
			return nil, err
		}
		return nil, NewIntegrityError(exercise.ID, "ungradable content", err)
	}

	score, err := scoring.Score(exercise.Points, exercise.TimeLimit, req.TimeTaken, checked.IsCorrect)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidTimeLimit) {
			return nil, NewIntegrityError(exercise.ID, "invalid time limit", err)
		}
		return nil, err
	}

	lessonExerciseCount, err := s.repo.Exercise().CountByLesson(ctx, exercise.LessonID)
	if err != nil {
		return nil, persistenceFailure("count lesson exercises", err)
	}

	attempt := models.Attempt{
		Answer:    datatypes.JSON(append([]byte(nil), req.Answer...)),
		IsCorrect: checked.IsCorrect,
		Score:     score,
		TimeTaken: req.TimeTaken,
		Timestamp: s.now().UTC(),
	}

	saved, err := s.recordAndSave(ctx, userID, exercise, attempt, lessonExerciseCount)
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, userID, exercise, attempt, saved)

	s.logger.Info("Answer submitted successfully",
		"exercise_id", exerciseID,
		"lesson_id", exercise.LessonID,
		"user_id", userID,
		"is_correct", checked.IsCorrect,
		"score", score)

	return &SubmitResult{
		IsCorrect:       checked.IsCorrect,
		Explanation:     checked.Explanation,
		Score:           score,
		ProgressSummary: progress.Summarize(saved.record),
	}, nil
}

// recordAndSave runs load, apply and conditional save as one unit. A version conflict
// re-reads the record and re-applies the same attempt.
func (s *submissionService) recordAndSave(ctx context.Context, userID string, exercise *models.Exercise, attempt models.Attempt, lessonExerciseCount int64) (*savedProgress, error) {
	var lastErr error
	tries := 0

	saved, err := s.retrier.Do(ctx, func(ctx context.Context) (*savedProgress, error) {
		tries++
		current, err := s.loadOrCreate(ctx, userID, exercise.LessonID, attempt.Timestamp)
		if err != nil {
			lastErr = err
			return nil, err
		}

		before := progress.SummarizeExercise(current, exercise.ID)
		updated := progress.RecordAttempt(*current, exercise.ID, attempt)
		updated = progress.ApplyCompletion(updated, lessonExerciseCount, attempt.Timestamp)

		if err := s.repo.Progress().Save(ctx, &updated); err != nil {
			if repositories.IsConflictError(err) {
				s.logger.Warn("Progress save conflicted, retrying",
					"user_id", userID,
					"lesson_id", exercise.LessonID,
					"try", tries)
			}
			lastErr = err
			return nil, err
		}
		lastErr = nil

		after := progress.SummarizeExercise(&updated, exercise.ID)
		return &savedProgress{
			record:            updated,
			attemptNo:         after.Attempts,
			exerciseCompleted: after.Completed && !before.Completed,
			lessonCompleted:   updated.Status == models.ProgressCompleted && current.Status != models.ProgressCompleted,
		}, nil
	})
	if err == nil {
		return saved, nil
	}

	if lastErr == nil {
		lastErr = err
	}
	if repositories.IsConflictError(lastErr) {
		s.logger.Error("Progress save retries exhausted",
			"user_id", userID,
			"lesson_id", exercise.LessonID,
			"tries", tries)
		return nil, fmt.Errorf("%w: %w: %d tries: %w", ErrPersistenceFailure, ErrConflict, tries, lastErr)
	}
	return nil, persistenceFailure("save progress", lastErr)
}

func (s *submissionService) loadOrCreate(ctx context.Context, userID string, lessonID uint, now time.Time) (*models.Progress, error) {
	current, err := s.repo.Progress().GetByUserAndLesson(ctx, userID, lessonID)
	if err == nil {
		return current, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	startedAt := now
	return &models.Progress{
		UserID:    userID,
		LessonID:  lessonID,
		Status:    models.ProgressInProgress,
		StartedAt: &startedAt,
		Exercises: datatypes.JSONSlice[models.ExerciseProgress]{},
	}, nil
}

func (s *submissionService) publishEvents(ctx context.Context, userID string, exercise *models.Exercise, attempt models.Attempt, saved *savedProgress) {
	if s.events == nil {
		return
	}

	s.events.NotifyAnswerSubmitted(ctx, userID, exercise.LessonID, exercise.ID, attempt, saved.attemptNo)
	if saved.exerciseCompleted {
		if entry := saved.record.FindExercise(exercise.ID); entry != nil {
			s.events.NotifyExerciseCompleted(ctx, userID, exercise.LessonID, *entry)
		}
	}
	if saved.lessonCompleted {
		s.events.NotifyLessonCompleted(ctx, saved.record)
	}
}

// ===== QUERIES =====

func (s *submissionService) GetExerciseProgress(ctx context.Context, exerciseID uint, userID string) (*ExerciseProgressResponse, error) {
	exercise, err := s.getExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Progress().GetByUserAndLesson(ctx, userID, exercise.LessonID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, persistenceFailure("get progress", err)
		}
		record = nil
	}

	return &ExerciseProgressResponse{
		ExerciseID:      exerciseID,
		ExerciseSummary: progress.SummarizeExercise(record, exerciseID),
	}, nil
}

func (s *submissionService) getExercise(ctx context.Context, exerciseID uint) (*models.Exercise, error) {
	exercise, err := s.repo.Exercise().GetByID(ctx, exerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExerciseNotFound
		}
		return nil, persistenceFailure("get exercise", err)
	}
	return exercise, nil
}
