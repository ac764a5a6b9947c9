package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ProgressRepository stores one document per (user_id, lesson_id)
type ProgressRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewProgressRepository(database *mongo.Database) *ProgressRepository {
	return &ProgressRepository{
		collection: database.Collection("progress"),
		ids:        newSequence(database),
	}
}

// InitializeIndexes creates the unique key that makes concurrent first saves conflict
func (r *ProgressRepository) InitializeIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "lesson_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "lesson_id", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create progress indexes: %w", err)
	}
	return nil
}

func (r *ProgressRepository) GetByUserAndLesson(ctx context.Context, userID string, lessonID uint) (*models.Progress, error) {
	var progress models.Progress
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "lesson_id": lessonID}).Decode(&progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("progress for user %s lesson %d: %w", userID, lessonID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &progress, nil
}

func (r *ProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	now := time.Now()
	current := progress.Version

	if current == 0 {
		// ids of failed inserts are not reused
		id, err := r.ids.next(ctx, "progress")
		if err != nil {
			return err
		}
		progress.ID = id
		progress.Version = 1
		progress.CreatedAt = now
		progress.UpdatedAt = now
		if _, err := r.collection.InsertOne(ctx, progress); err != nil {
			progress.ID = 0
			progress.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("progress for user %s lesson %d already exists: %w", progress.UserID, progress.LessonID, repositories.ErrConflict)
			}
			return fmt.Errorf("failed to create progress: %w", err)
		}
		return nil
	}

	updated := *progress
	updated.Version = current + 1
	updated.UpdatedAt = now

	result, err := r.collection.ReplaceOne(ctx,
		bson.M{"user_id": progress.UserID, "lesson_id": progress.LessonID, "version": current},
		&updated,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("progress for user %s lesson %d at version %d: %w", progress.UserID, progress.LessonID, current, repositories.ErrConflict)
	}

	*progress = updated
	return nil
}

func (r *ProgressRepository) ListByLesson(ctx context.Context, lessonID uint, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	filter := bson.M{"lesson_id": lessonID}
	if filters.Status != nil {
		filter["status"] = *filters.Status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count progress: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	if filters.Limit > 0 {
		opts.SetLimit(int64(filters.Limit))
	}
	if filters.Offset > 0 {
		opts.SetSkip(int64(filters.Offset))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list progress: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.Progress
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode progress: %w", err)
	}
	return records, total, nil
}
