package repositories

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/cache"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// CachedExerciseRepository is a read-through cache in front of an ExerciseRepository.
// Exercise definitions are immutable once published, so entries are only expired by TTL.
type CachedExerciseRepository struct {
	next   ExerciseRepository
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedExerciseRepository(next ExerciseRepository, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger) *CachedExerciseRepository {
	return &CachedExerciseRepository{
		next:   next,
		cache:  cacheService,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *CachedExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	if err := r.next.Create(ctx, exercise); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, cache.LessonExerciseCountKey(exercise.LessonID)); err != nil {
		r.logger.Warn("Failed to invalidate lesson exercise count", "lesson_id", exercise.LessonID, "error", err)
	}
	return nil
}

func (r *CachedExerciseRepository) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	key := cache.ExerciseKey(id)

	var cached models.Exercise
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Exercise cache read failed", "exercise_id", id, "error", err)
	}

	exercise, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, exercise, r.ttl); err != nil {
		r.logger.Warn("Exercise cache write failed", "exercise_id", id, "error", err)
	}
	return exercise, nil
}

func (r *CachedExerciseRepository) ListByLesson(ctx context.Context, lessonID uint) ([]*models.Exercise, error) {
	return r.next.ListByLesson(ctx, lessonID)
}

func (r *CachedExerciseRepository) CountByLesson(ctx context.Context, lessonID uint) (int64, error) {
	key := cache.LessonExerciseCountKey(lessonID)

	var count int64
	err := r.cache.Get(ctx, key, &count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Exercise count cache read failed", "lesson_id", lessonID, "error", err)
	}

	count, err = r.next.CountByLesson(ctx, lessonID)
	if err != nil {
		return 0, err
	}

	if err := r.cache.Set(ctx, key, count, r.ttl); err != nil {
		r.logger.Warn("Exercise count cache write failed", "lesson_id", lessonID, "error", err)
	}
	return count, nil
}
