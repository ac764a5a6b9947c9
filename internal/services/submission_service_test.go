package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/events"
	"github.com/SAP-F-2025/lesson-progress-service/internal/grading"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

const testUserID = "user-42"

var submittedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func animalExercise() *models.Exercise {
	return &models.Exercise{
		ID:        7,
		LessonID:  3,
		Type:      models.ExerciseMultipleChoice,
		Question:  "Which animal barks?",
		Points:    10,
		TimeLimit: 30,
		Content:   datatypes.JSON(`{"options":[{"text":"cat","isCorrect":false},{"text":"dog","isCorrect":true}]}`),
	}
}

func wordOrderExercise() *models.Exercise {
	return &models.Exercise{
		ID:        8,
		LessonID:  3,
		Type:      models.ExerciseWordOrder,
		Points:    10,
		TimeLimit: 60,
		Content:   datatypes.JSON(`{"words":["happy","I","am"],"correctOrder":["I","am","happy"]}`),
	}
}

type submissionFixture struct {
	repos     *mockRepos
	publisher *events.MockEventPublisher
	service   SubmissionService
	saved     []models.Progress
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	repos, repo := newMockRepos()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)

	service := NewSubmissionService(repo, NewProgressEventService(publisher, logger), validator.New(), logger, RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})
	service.(*submissionService).now = func() time.Time { return submittedAt }

	return &submissionFixture{repos: repos, publisher: publisher, service: service}
}

// expectSave accepts saves and records a copy of every persisted record
func (f *submissionFixture) expectSave() {
	f.repos.progress.On("Save", mock.Anything, mock.AnythingOfType("*models.Progress")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*models.Progress)
			record.Version++
			f.saved = append(f.saved, *record)
		}).
		Return(nil)
}

func (f *submissionFixture) lastSaved(t *testing.T) models.Progress {
	t.Helper()
	require.NotEmpty(t, f.saved)
	return f.saved[len(f.saved)-1]
}

func intPtr(v int) *int { return &v }

func answer(raw string) *SubmitAnswerRequest {
	return &SubmitAnswerRequest{Answer: json.RawMessage(raw)}
}

func eventTypes(published []events.ProgressEvent) []events.EventType {
	types := make([]events.EventType, 0, len(published))
	for _, event := range published {
		types = append(types, event.Type)
	}
	return types
}

func TestSubmit_CorrectMultipleChoice(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(1), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	f.expectSave()

	req := answer(`"dog"`)
	req.TimeTaken = intPtr(15)
	result, err := f.service.Submit(context.Background(), 7, testUserID, req)
	require.NoError(t, err)

	assert.True(t, result.IsCorrect)
	assert.Nil(t, result.Explanation)
	assert.Equal(t, 11, result.Score)
	assert.Equal(t, 11, result.ProgressSummary.TotalScore)
	assert.Equal(t, 100.0, result.ProgressSummary.PercentComplete)
	assert.True(t, result.ProgressSummary.Completed)

	saved := f.lastSaved(t)
	require.Len(t, saved.Exercises, 1)
	assert.True(t, saved.Exercises[0].Completed)
	assert.Equal(t, 11, saved.Exercises[0].Score)
	require.Len(t, saved.Exercises[0].Attempts, 1)
	assert.JSONEq(t, `"dog"`, string(saved.Exercises[0].Attempts[0].Answer))
	assert.Equal(t, submittedAt, saved.Exercises[0].Attempts[0].Timestamp)
	assert.Equal(t, models.ProgressCompleted, saved.Status)
	require.NotNil(t, saved.CompletedAt)
	assert.Equal(t, submittedAt, *saved.CompletedAt)
	assert.Equal(t, 15, saved.TimeSpent)

	assert.Equal(t, []events.EventType{
		events.EventAnswerSubmitted,
		events.EventExerciseCompleted,
		events.EventLessonCompleted,
	}, eventTypes(f.publisher.GetPublishedEvents()))
}

func TestSubmit_WrongThenRight(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(2), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound).Once()
	f.expectSave()

	first, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"cat"`))
	require.NoError(t, err)
	assert.False(t, first.IsCorrect)
	assert.Equal(t, 0, first.Score)
	require.NotNil(t, first.Explanation)
	assert.Equal(t, grading.HintMultipleChoice, *first.Explanation)
	assert.False(t, first.ProgressSummary.Completed)

	stored := f.lastSaved(t)
	assert.False(t, stored.Exercises[0].Completed)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).Return(&stored, nil)

	second, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	require.NoError(t, err)
	assert.True(t, second.IsCorrect)
	assert.Equal(t, 10, second.Score)

	saved := f.lastSaved(t)
	require.Len(t, saved.Exercises, 1)
	assert.True(t, saved.Exercises[0].Completed)
	assert.Len(t, saved.Exercises[0].Attempts, 2)
	assert.Equal(t, 10, saved.TotalScore)
	assert.Equal(t, 50.0, saved.Accuracy)
	// one of two lesson exercises done
	assert.Equal(t, models.ProgressInProgress, saved.Status)
	assert.Equal(t, 2, saved.Version)

	assert.Equal(t, []events.EventType{
		events.EventAnswerSubmitted,
		events.EventAnswerSubmitted,
		events.EventExerciseCompleted,
	}, eventTypes(f.publisher.GetPublishedEvents()))
}

func TestSubmit_WordOrderIsCaseInsensitive(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(8)).Return(wordOrderExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(2), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	f.expectSave()

	result, err := f.service.Submit(context.Background(), 8, testUserID, answer(`["i","AM","happy"]`))
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, 10, result.Score)
}

func TestSubmit_UnknownExerciseTypeLeavesProgressUntouched(t *testing.T) {
	f := newSubmissionFixture(t)
	exercise := animalExercise()
	exercise.Type = models.ExerciseType("drag_drop")
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(exercise, nil)

	result, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnknownExerciseType)
	assert.True(t, IsIntegrity(err))
	assert.False(t, IsValidation(err))

	f.repos.progress.AssertNotCalled(t, "GetByUserAndLesson", mock.Anything, mock.Anything, mock.Anything)
	f.repos.progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestSubmit_NoCorrectOptionIsIntegrityFault(t *testing.T) {
	f := newSubmissionFixture(t)
	exercise := animalExercise()
	exercise.Content = datatypes.JSON(`{"options":[{"text":"cat","isCorrect":false},{"text":"dog","isCorrect":false}]}`)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(exercise, nil)

	_, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	assert.ErrorIs(t, err, ErrNoCorrectOption)
	assert.True(t, IsIntegrity(err))
	f.repos.progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSubmit_InvalidAnswerShape(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)

	_, err := f.service.Submit(context.Background(), 7, testUserID, answer(`["dog"]`))
	assert.ErrorIs(t, err, ErrInvalidAnswerShape)
	assert.True(t, IsValidation(err))
	f.repos.progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSubmit_RequestValidation(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.service.Submit(context.Background(), 7, testUserID, &SubmitAnswerRequest{})
	assert.True(t, IsValidation(err))

	_, err = f.service.Submit(context.Background(), 7, testUserID, nil)
	var fieldErrs ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "answer", fieldErrs[0].Field)

	req := answer(`"dog"`)
	req.TimeTaken = intPtr(-1)
	_, err = f.service.Submit(context.Background(), 7, testUserID, req)
	assert.True(t, IsValidation(err))

	f.repos.exercise.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSubmit_ExerciseNotFound(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(99)).Return(nil, repositories.ErrNotFound)

	_, err := f.service.Submit(context.Background(), 99, testUserID, answer(`"dog"`))
	assert.ErrorIs(t, err, ErrExerciseNotFound)
	assert.True(t, IsNotFound(err))
}

func TestSubmit_LoadFailureIsPersistenceFailure(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(nil, errors.New("connection refused"))

	_, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	assert.True(t, IsPersistence(err))
	assert.False(t, IsNotFound(err))
}

func TestSubmit_SaveFailureIsNotRetried(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(1), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	f.repos.progress.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	assert.True(t, IsPersistence(err))
	assert.False(t, IsConflict(err))
	f.repos.progress.AssertNumberOfCalls(t, "Save", 1)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestSubmit_RetriesOnVersionConflict(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(1), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	f.repos.progress.On("Save", mock.Anything, mock.Anything).Return(repositories.ErrConflict).Once()
	f.expectSave()

	result, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)

	f.repos.progress.AssertNumberOfCalls(t, "Save", 2)
	f.repos.progress.AssertNumberOfCalls(t, "GetByUserAndLesson", 2)
	saved := f.lastSaved(t)
	require.Len(t, saved.Exercises, 1)
	assert.Len(t, saved.Exercises[0].Attempts, 1)
}

func TestSubmit_ConflictRetriesExhausted(t *testing.T) {
	f := newSubmissionFixture(t)
	f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	f.repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(1), nil)
	f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	f.repos.progress.On("Save", mock.Anything, mock.Anything).Return(repositories.ErrConflict)

	_, err := f.service.Submit(context.Background(), 7, testUserID, answer(`"dog"`))
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.True(t, IsPersistence(err))
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestGetExerciseProgress(t *testing.T) {
	t.Run("no record yields zeros", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
		f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
			Return(nil, repositories.ErrNotFound)

		resp, err := f.service.GetExerciseProgress(context.Background(), 7, testUserID)
		require.NoError(t, err)
		assert.Equal(t, uint(7), resp.ExerciseID)
		assert.False(t, resp.Completed)
		assert.Equal(t, 0, resp.Attempts)
		assert.Equal(t, 0, resp.Score)
	})

	t.Run("existing record", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
		record := &models.Progress{
			UserID:   testUserID,
			LessonID: 3,
			Exercises: datatypes.JSONSlice[models.ExerciseProgress]{{
				ExerciseID: 7,
				Completed:  true,
				Score:      12,
				Attempts:   []models.Attempt{{IsCorrect: false}, {IsCorrect: true, Score: 12}},
			}},
		}
		f.repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).Return(record, nil)

		resp, err := f.service.GetExerciseProgress(context.Background(), 7, testUserID)
		require.NoError(t, err)
		assert.True(t, resp.Completed)
		assert.Equal(t, 2, resp.Attempts)
		assert.Equal(t, 12, resp.Score)
	})

	t.Run("unknown exercise", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.repos.exercise.On("GetByID", mock.Anything, uint(5)).Return(nil, repositories.ErrNotFound)

		_, err := f.service.GetExerciseProgress(context.Background(), 5, testUserID)
		assert.ErrorIs(t, err, ErrExerciseNotFound)
	})
}
