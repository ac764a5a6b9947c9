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
)

type LessonRepository struct {
	collection *mongo.Collection
	ids        *sequence
}

func NewLessonRepository(database *mongo.Database) *LessonRepository {
	return &LessonRepository{
		collection: database.Collection("lessons"),
		ids:        newSequence(database),
	}
}

func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == 0 {
		id, err := r.ids.next(ctx, "lessons")
		if err != nil {
			return err
		}
		lesson.ID = id
	}

	now := time.Now()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, lesson); err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

func (r *LessonRepository) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lesson); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("lesson %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return &lesson, nil
}
