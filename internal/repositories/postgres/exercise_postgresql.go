package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"gorm.io/gorm"
)

type ExercisePostgreSQL struct {
	db *gorm.DB
}

func NewExercisePostgreSQL(db *gorm.DB) repositories.ExerciseRepository {
	return &ExercisePostgreSQL{db: db}
}

func (e *ExercisePostgreSQL) Create(ctx context.Context, exercise *models.Exercise) error {
	if err := e.db.WithContext(ctx).Create(exercise).Error; err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

func (e *ExercisePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := e.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("exercise %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return &exercise, nil
}

func (e *ExercisePostgreSQL) ListByLesson(ctx context.Context, lessonID uint) ([]*models.Exercise, error) {
	var exercises []*models.Exercise
	if err := e.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("display_order ASC").
		Find(&exercises).Error; err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return exercises, nil
}

func (e *ExercisePostgreSQL) CountByLesson(ctx context.Context, lessonID uint) (int64, error) {
	var count int64
	if err := e.db.WithContext(ctx).
		Model(&models.Exercise{}).
		Where("lesson_id = ?", lessonID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return count, nil
}
