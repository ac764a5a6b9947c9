package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by Save when the stored record changed since it was read
	ErrConflict = errors.New("record version conflict")
)

// IsNotFoundError checks if error represents a missing record
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflictError checks if error represents an optimistic locking conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// ===== SHARED FILTER STRUCTS =====

type ProgressFilters struct {
	Status *models.ProgressStatus `json:"status"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *models.Exercise) error
	GetByID(ctx context.Context, id uint) (*models.Exercise, error)
	ListByLesson(ctx context.Context, lessonID uint) ([]*models.Exercise, error)
	CountByLesson(ctx context.Context, lessonID uint) (int64, error)
}

// ProgressRepository persists progress records with optimistic locking.
// Save inserts a record whose Version is 0 and otherwise updates it only if the stored
// version still equals progress.Version; on success progress.Version is advanced.
type ProgressRepository interface {
	GetByUserAndLesson(ctx context.Context, userID string, lessonID uint) (*models.Progress, error)
	Save(ctx context.Context, progress *models.Progress) error
	ListByLesson(ctx context.Context, lessonID uint, filters ProgressFilters) ([]*models.Progress, int64, error)
}

// Repository groups the stores used by the services
type Repository interface {
	Lesson() LessonRepository
	Exercise() ExerciseRepository
	Progress() ProgressRepository
}

type repository struct {
	lesson   LessonRepository
	exercise ExerciseRepository
	progress ProgressRepository
}

func NewRepository(lesson LessonRepository, exercise ExerciseRepository, progress ProgressRepository) Repository {
	return &repository{
		lesson:   lesson,
		exercise: exercise,
		progress: progress,
	}
}

func (r *repository) Lesson() LessonRepository     { return r.lesson }
func (r *repository) Exercise() ExerciseRepository { return r.exercise }
func (r *repository) Progress() ProgressRepository { return r.progress }
