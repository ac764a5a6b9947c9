package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/events"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

const (
	defaultEventQueueSize = 256
	eventPublishTimeout   = 5 * time.Second
)

// AsyncProgressEventService hands notifications to one background worker so a slow
// broker never holds up a submission response. Events leave in the order they were queued.
type AsyncProgressEventService struct {
	next   ProgressEventService
	logger *slog.Logger
	queue  chan func()
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncProgressEventService(next ProgressEventService, logger *slog.Logger, queueSize int) *AsyncProgressEventService {
	if queueSize <= 0 {
		queueSize = defaultEventQueueSize
	}
	s := &AsyncProgressEventService{
		next:   next,
		logger: logger,
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncProgressEventService) run() {
	defer close(s.done)
	for job := range s.queue {
		job()
	}
}

// enqueue drops the event when the queue is full or the service is closed
func (s *AsyncProgressEventService) enqueue(ctx context.Context, eventType events.EventType, publish func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	job := func() {
		publishCtx, cancel := context.WithTimeout(ctx, eventPublishTimeout)
		defer cancel()
		publish(publishCtx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("Event service closed, dropping progress event", "event_type", eventType)
		return
	}
	select {
	case s.queue <- job:
	default:
		s.logger.Warn("Event queue full, dropping progress event", "event_type", eventType)
	}
}

func (s *AsyncProgressEventService) NotifyAnswerSubmitted(ctx context.Context, userID string, lessonID, exerciseID uint, attempt models.Attempt, attemptNo int) {
	s.enqueue(ctx, events.EventAnswerSubmitted, func(ctx context.Context) {
		s.next.NotifyAnswerSubmitted(ctx, userID, lessonID, exerciseID, attempt, attemptNo)
	})
}

func (s *AsyncProgressEventService) NotifyExerciseCompleted(ctx context.Context, userID string, lessonID uint, entry models.ExerciseProgress) {
	s.enqueue(ctx, events.EventExerciseCompleted, func(ctx context.Context) {
		s.next.NotifyExerciseCompleted(ctx, userID, lessonID, entry)
	})
}

func (s *AsyncProgressEventService) NotifyLessonCompleted(ctx context.Context, record models.Progress) {
	s.enqueue(ctx, events.EventLessonCompleted, func(ctx context.Context) {
		s.next.NotifyLessonCompleted(ctx, record)
	})
}

// Close stops accepting events and waits for the queued ones until ctx ends.
// It is safe to call more than once.
func (s *AsyncProgressEventService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
