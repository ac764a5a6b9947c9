package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockLessonRepository is a mock implementation of LessonRepository
type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}

func (m *MockLessonRepository) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	if lesson, ok := args.Get(0).(*models.Lesson); ok {
		return lesson, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockExerciseRepository is a mock implementation of ExerciseRepository
type MockExerciseRepository struct {
	mock.Mock
}

func (m *MockExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	args := m.Called(ctx, exercise)
	return args.Error(0)
}

func (m *MockExerciseRepository) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	args := m.Called(ctx, id)
	if exercise, ok := args.Get(0).(*models.Exercise); ok {
		return exercise, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExerciseRepository) ListByLesson(ctx context.Context, lessonID uint) ([]*models.Exercise, error) {
	args := m.Called(ctx, lessonID)
	if exercises, ok := args.Get(0).([]*models.Exercise); ok {
		return exercises, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExerciseRepository) CountByLesson(ctx context.Context, lessonID uint) (int64, error) {
	args := m.Called(ctx, lessonID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProgressRepository is a mock implementation of ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) GetByUserAndLesson(ctx context.Context, userID string, lessonID uint) (*models.Progress, error) {
	args := m.Called(ctx, userID, lessonID)
	if progress, ok := args.Get(0).(*models.Progress); ok {
		return progress, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *MockProgressRepository) ListByLesson(ctx context.Context, lessonID uint, filters repositories.ProgressFilters) ([]*models.Progress, int64, error) {
	args := m.Called(ctx, lessonID, filters)
	if records, ok := args.Get(0).([]*models.Progress); ok {
		return records, args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

type mockRepos struct {
	lesson   *MockLessonRepository
	exercise *MockExerciseRepository
	progress *MockProgressRepository
}

func newMockRepos() (*mockRepos, repositories.Repository) {
	m := &mockRepos{
		lesson:   &MockLessonRepository{},
		exercise: &MockExerciseRepository{},
		progress: &MockProgressRepository{},
	}
	return m, repositories.NewRepository(m.lesson, m.exercise, m.progress)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
