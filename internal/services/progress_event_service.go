package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/lesson-progress-service/internal/events"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// ProgressEventService publishes the domain events that follow a saved submission.
// Publishing is best effort: the progress record is already durable, so failures are
// logged and not returned to the submitter.
type ProgressEventService interface {
	NotifyAnswerSubmitted(ctx context.Context, userID string, lessonID, exerciseID uint, attempt models.Attempt, attemptNo int)
	NotifyExerciseCompleted(ctx context.Context, userID string, lessonID uint, entry models.ExerciseProgress)
	NotifyLessonCompleted(ctx context.Context, record models.Progress)
}

type progressEventService struct {
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewProgressEventService(eventPublisher events.EventPublisher, logger *slog.Logger) ProgressEventService {
	return &progressEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *progressEventService) NotifyAnswerSubmitted(ctx context.Context, userID string, lessonID, exerciseID uint, attempt models.Attempt, attemptNo int) {
	event := events.NewAnswerSubmittedEvent(events.AnswerSubmittedEvent{
		UserID:     userID,
		LessonID:   lessonID,
		ExerciseID: exerciseID,
		IsCorrect:  attempt.IsCorrect,
		Score:      attempt.Score,
		TimeTaken:  attempt.TimeTaken,
		AttemptNo:  attemptNo,
	})
	s.publish(ctx, event)
}

func (s *progressEventService) NotifyExerciseCompleted(ctx context.Context, userID string, lessonID uint, entry models.ExerciseProgress) {
	event := events.NewExerciseCompletedEvent(events.ExerciseCompletedEvent{
		UserID:     userID,
		LessonID:   lessonID,
		ExerciseID: entry.ExerciseID,
		Score:      entry.Score,
		Attempts:   len(entry.Attempts),
	})
	s.publish(ctx, event)
}

func (s *progressEventService) NotifyLessonCompleted(ctx context.Context, record models.Progress) {
	data := events.LessonCompletedEvent{
		UserID:     record.UserID,
		LessonID:   record.LessonID,
		TotalScore: record.TotalScore,
		Accuracy:   record.Accuracy,
		TimeSpent:  record.TimeSpent,
	}
	if record.CompletedAt != nil {
		data.CompletedAt = *record.CompletedAt
	}
	s.publish(ctx, events.NewLessonCompletedEvent(data))
}

func (s *progressEventService) publish(ctx context.Context, event *events.ProgressEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishProgressEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish progress event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return
	}
	s.logger.Debug("Published progress event", "event_id", event.ID, "event_type", event.Type)
}
