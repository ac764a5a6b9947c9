package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of progress events the service emits
type EventType string

const (
	EventAnswerSubmitted   EventType = "answer.submitted"
	EventExerciseCompleted EventType = "exercise.completed"
	EventLessonCompleted   EventType = "lesson.completed"
)

const (
	eventSource  = "lesson-progress-service"
	eventVersion = "1.0"
)

// ProgressEvent is the envelope for every event published by the service
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AnswerSubmittedEvent struct {
	UserID     string `json:"user_id"`
	LessonID   uint   `json:"lesson_id"`
	ExerciseID uint   `json:"exercise_id"`
	IsCorrect  bool   `json:"is_correct"`
	Score      int    `json:"score"`
	TimeTaken  *int   `json:"time_taken,omitempty"`
	AttemptNo  int    `json:"attempt_no"`
}

type ExerciseCompletedEvent struct {
	UserID     string `json:"user_id"`
	LessonID   uint   `json:"lesson_id"`
	ExerciseID uint   `json:"exercise_id"`
	Score      int    `json:"score"`
	Attempts   int    `json:"attempts"`
}

type LessonCompletedEvent struct {
	UserID      string    `json:"user_id"`
	LessonID    uint      `json:"lesson_id"`
	TotalScore  int       `json:"total_score"`
	Accuracy    float64   `json:"accuracy"`
	TimeSpent   int       `json:"time_spent"`
	CompletedAt time.Time `json:"completed_at"`
}

// Event factory functions

func NewAnswerSubmittedEvent(data AnswerSubmittedEvent) *ProgressEvent {
	return newEvent(EventAnswerSubmitted, data)
}

func NewExerciseCompletedEvent(data ExerciseCompletedEvent) *ProgressEvent {
	return newEvent(EventExerciseCompleted, data)
}

func NewLessonCompletedEvent(data LessonCompletedEvent) *ProgressEvent {
	return newEvent(EventLessonCompleted, data)
}

func newEvent(eventType EventType, data interface{}) *ProgressEvent {
	return &ProgressEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
