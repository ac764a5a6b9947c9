package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// Progress is the per-user, per-lesson record of exercise attempts
type Progress struct {
	ID          uint           `json:"id" gorm:"primaryKey" bson:"progress_id"`
	UserID      string         `json:"user_id" gorm:"size:255;not null;uniqueIndex:idx_progress_user_lesson" bson:"user_id"`
	LessonID    uint           `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_user_lesson;index" bson:"lesson_id"`
	Status      ProgressStatus `json:"status" gorm:"type:varchar(20);not null;default:not_started" bson:"status"`
	StartedAt   *time.Time     `json:"started_at" bson:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at" bson:"completed_at,omitempty"`

	Exercises datatypes.JSONSlice[ExerciseProgress] `json:"exercises" gorm:"type:jsonb" bson:"exercises"`

	TotalScore     int        `json:"total_score" gorm:"not null;default:0" bson:"total_score"`
	Accuracy       float64    `json:"accuracy" gorm:"not null;default:0" bson:"accuracy"`
	TimeSpent      int        `json:"time_spent" gorm:"not null;default:0" bson:"time_spent"` // seconds
	LastAccessDate *time.Time `json:"last_access_date" bson:"last_access_date,omitempty"`

	// Optimistic locking. Zero means the record has not been persisted yet.
	Version int `json:"version" gorm:"not null;default:0" bson:"version"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

// ExerciseProgress tracks one exercise inside a Progress record
type ExerciseProgress struct {
	ExerciseID uint      `json:"exercise_id" bson:"exercise_id"`
	Attempts   []Attempt `json:"attempts" bson:"attempts"`
	Completed  bool      `json:"completed" bson:"completed"`
	Score      int       `json:"score" bson:"score"`
}

// Attempt is a single submitted answer. Attempts are never edited once recorded.
type Attempt struct {
	Answer    datatypes.JSON `json:"answer" bson:"answer"`
	IsCorrect bool           `json:"is_correct" bson:"is_correct"`
	Score     int            `json:"score" bson:"score"`
	TimeTaken *int           `json:"time_taken,omitempty" bson:"time_taken,omitempty"` // seconds
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
}

// FindExercise returns the entry for exerciseID, or nil if there is none
func (p *Progress) FindExercise(exerciseID uint) *ExerciseProgress {
	for i := range p.Exercises {
		if p.Exercises[i].ExerciseID == exerciseID {
			return &p.Exercises[i]
		}
	}
	return nil
}
