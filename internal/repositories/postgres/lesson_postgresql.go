package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"gorm.io/gorm"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	if err := l.db.WithContext(ctx).Omit("Exercises").Create(lesson).Error; err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lesson %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}
