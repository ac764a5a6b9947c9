package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"gorm.io/gorm"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) GetByUserAndLesson(ctx context.Context, userID string, lessonID uint) (*models.Progress, error) {
	var progress models.Progress
	if err := p.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("progress for user %s lesson %d: %w", userID, lessonID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) Save(ctx context.Context, progress *models.Progress) error {
	if progress.Version == 0 {
		return p.create(ctx, progress)
	}
	return p.update(ctx, progress)
}

func (p *ProgressPostgreSQL) create(ctx context.Context, progress *models.Progress) error {
	progress.Version = 1
	if err := p.db.WithContext(ctx).Create(progress).Error; err != nil {
		progress.Version = 0
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("progress for user %s lesson %d already exists: %w", progress.UserID, progress.LessonID, repositories.ErrConflict)
		}
		return fmt.Errorf("failed to create progress: %w", err)
	}
	return nil
}

// update writes the whole record in one statement guarded by the version read earlier
func (p *ProgressPostgreSQL) update(ctx context.Context, progress *models.Progress) error {
	current := progress.Version
	now := time.Now()

	result := p.db.WithContext(ctx).
		Model(&models.Progress{}).
		Where("id = ? AND version = ?", progress.ID, current).
		Updates(map[string]interface{}{
			"status":           progress.Status,
			"started_at":       progress.StartedAt,
			"completed_at":     progress.CompletedAt,
			"exercises":        progress.Exercises,
			"total_score":      progress.TotalScore,
			"accuracy":         progress.Accuracy,
			"time_spent":       progress.TimeSpent,
			"last_access_date": progress.LastAccessDate,
			"version":          current + 1,
			"updated_at":       now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("progress %d at version %d: %w", progress.ID, current, repositories.ErrConflict)
	}

	progress.Version = current + 1
	progress.UpdatedAt = now
	return nil
}

func (p *ProgressPostgreSQL) ListByLesson(ctx context.Context, lessonID uint, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	var records []*models.Progress
	var total int64

	query := p.db.WithContext(ctx).Model(&models.Progress{}).Where("lesson_id = ?", lessonID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count progress: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("user_id ASC").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, total, nil
}
