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

type ExerciseRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewExerciseRepository(database *mongo.Database) *ExerciseRepository {
	return &ExerciseRepository{
		collection: database.Collection("exercises"),
		ids:        newSequence(database),
	}
}

// InitializeIndexes creates the lookup index used by lesson queries
func (r *ExerciseRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "lesson_id", Value: 1},
			{Key: "order", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create exercise indexes: %w", err)
	}
	return nil
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	if exercise.ID == 0 {
		id, err := r.ids.next(ctx, "exercises")
		if err != nil {
			return err
		}
		exercise.ID = id
	}

	now := time.Now()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, exercise); err != nil {
		return fmt.Errorf("failed to create exercise: %w", err)
	}
	return nil
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("exercise %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return &exercise, nil
}

func (r *ExerciseRepository) ListByLesson(ctx context.Context, lessonID uint) ([]*models.Exercise, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"lesson_id": lessonID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer cursor.Close(ctx)

	var exercises []*models.Exercise
	if err := cursor.All(ctx, &exercises); err != nil {
		return nil, fmt.Errorf("failed to decode exercises: %w", err)
	}
	return exercises, nil
}

func (r *ExerciseRepository) CountByLesson(ctx context.Context, lessonID uint) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"lesson_id": lessonID})
	if err != nil {
		return 0, fmt.Errorf("failed to count exercises: %w", err)
	}
	return count, nil
}
