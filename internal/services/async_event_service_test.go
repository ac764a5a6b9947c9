package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/events"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stalledPublisher holds every publish until release is closed
type stalledPublisher struct {
	*events.MockEventPublisher
	release chan struct{}
}

func newStalledPublisher() *stalledPublisher {
	return &stalledPublisher{
		MockEventPublisher: events.NewMockEventPublisher(testLogger()),
		release:            make(chan struct{}),
	}
}

func (p *stalledPublisher) PublishProgressEvent(ctx context.Context, event *events.ProgressEvent) error {
	<-p.release
	return p.MockEventPublisher.PublishProgressEvent(ctx, event)
}

func TestSubmit_DoesNotWaitForBroker(t *testing.T) {
	repos, repo := newMockRepos()
	logger := testLogger()
	publisher := newStalledPublisher()
	eventService := NewAsyncProgressEventService(NewProgressEventService(publisher, logger), logger, 8)
	service := NewSubmissionService(repo, eventService, validator.New(), logger, RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	})

	repos.exercise.On("GetByID", mock.Anything, uint(7)).Return(animalExercise(), nil)
	repos.exercise.On("CountByLesson", mock.Anything, uint(3)).Return(int64(1), nil)
	repos.progress.On("GetByUserAndLesson", mock.Anything, testUserID, uint(3)).
		Return(nil, repositories.ErrNotFound)
	repos.progress.On("Save", mock.Anything, mock.AnythingOfType("*models.Progress")).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := service.Submit(ctx, 7, testUserID, answer(`"dog"`))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submission blocked on the event publisher")
	}
	cancel()
	assert.Empty(t, publisher.GetPublishedEvents())

	close(publisher.release)
	closeCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, eventService.Close(closeCtx))

	// the request context ended before publishing, events still go out in order
	assert.Equal(t, []events.EventType{
		events.EventAnswerSubmitted,
		events.EventExerciseCompleted,
		events.EventLessonCompleted,
	}, eventTypes(publisher.GetPublishedEvents()))
}

func TestAsyncProgressEventService_DropsWhenFull(t *testing.T) {
	logger := testLogger()
	publisher := newStalledPublisher()
	service := NewAsyncProgressEventService(NewProgressEventService(publisher, logger), logger, 1)
	ctx := context.Background()
	record := models.Progress{UserID: testUserID, LessonID: 3}

	// the worker takes the first event and stalls, the second fills the queue
	service.NotifyLessonCompleted(ctx, record)
	require.Eventually(t, func() bool { return len(service.queue) == 0 }, time.Second, time.Millisecond)
	service.NotifyLessonCompleted(ctx, record)
	service.NotifyLessonCompleted(ctx, record)

	close(publisher.release)
	require.NoError(t, service.Close(ctx))
	assert.Len(t, publisher.GetPublishedEvents(), 2)
}

func TestAsyncProgressEventService_CloseIsFinal(t *testing.T) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	service := NewAsyncProgressEventService(NewProgressEventService(publisher, logger), logger, 4)
	ctx := context.Background()

	service.NotifyExerciseCompleted(ctx, testUserID, 3, models.ExerciseProgress{ExerciseID: 7, Completed: true})
	require.NoError(t, service.Close(ctx))
	require.NoError(t, service.Close(ctx))

	service.NotifyExerciseCompleted(ctx, testUserID, 3, models.ExerciseProgress{ExerciseID: 8, Completed: true})
	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExerciseCompleted, published[0].Type)
}

func TestAsyncProgressEventService_CloseHonoursDeadline(t *testing.T) {
	logger := testLogger()
	publisher := newStalledPublisher()
	defer close(publisher.release)
	service := NewAsyncProgressEventService(NewProgressEventService(publisher, logger), logger, 4)

	service.NotifyLessonCompleted(context.Background(), models.Progress{UserID: testUserID, LessonID: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, service.Close(ctx), context.DeadlineExceeded)
}
