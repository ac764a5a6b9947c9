package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/lesson-progress-service/internal/events"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
)

// ServiceManager hands the wired services to the HTTP layer
type ServiceManager interface {
	Submission() SubmissionService
	Progress() ProgressService
	// Close flushes progress events still queued for the broker
	Close(ctx context.Context) error
}

type serviceManager struct {
	submission SubmissionService
	progress   ProgressService
	events     *AsyncProgressEventService
}

func NewServiceManager(
	repo repositories.Repository,
	eventPublisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
	policy RetryPolicy,
) ServiceManager {
	eventService := NewAsyncProgressEventService(NewProgressEventService(eventPublisher, logger), logger, defaultEventQueueSize)
	return &serviceManager{
		submission: NewSubmissionService(repo, eventService, validator, logger, policy),
		progress:   NewProgressService(repo, logger),
		events:     eventService,
	}
}

func (m *serviceManager) Submission() SubmissionService { return m.submission }
func (m *serviceManager) Progress() ProgressService     { return m.progress }

func (m *serviceManager) Close(ctx context.Context) error {
	return m.events.Close(ctx)
}
