package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/progress"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
)

const exportPageSize = 200

type progressService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:   repo,
		logger: logger,
	}
}

func (s *progressService) GetLessonProgress(ctx context.Context, lessonID uint, userID string) (*LessonProgressResponse, error) {
	if _, err := s.getLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	record, err := s.repo.Progress().GetByUserAndLesson(ctx, userID, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &LessonProgressResponse{
				LessonID: lessonID,
				UserID:   userID,
				Status:   models.ProgressNotStarted,
				Summary:  progress.Summarize(models.Progress{Status: models.ProgressNotStarted}),
			}, nil
		}
		return nil, persistenceFailure("get progress", err)
	}

	return &LessonProgressResponse{
		LessonID: lessonID,
		UserID:   userID,
		Status:   record.Status,
		Summary:  progress.Summarize(*record),
		Progress: record,
	}, nil
}

// ExportLessonProgress renders every learner's progress on a lesson as an xlsx workbook
func (s *progressService) ExportLessonProgress(ctx context.Context, lessonID uint) ([]byte, error) {
	lesson, err := s.getLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exporting lesson progress", "lesson_id", lessonID)

	exerciseCount, err := s.repo.Exercise().CountByLesson(ctx, lessonID)
	if err != nil {
		return nil, persistenceFailure("count lesson exercises", err)
	}

	records, err := s.listAllProgress(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := "Progress"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"User ID", "Status", "Completed Exercises", "Lesson Exercises", "Percent Complete",
		"Total Score", "Accuracy", "Time Spent (s)", "Started At", "Completed At", "Last Access",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, record := range records {
		row := progressToRow(record, exerciseCount)
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Lesson progress exported",
		"lesson_id", lessonID,
		"lesson_title", lesson.Title,
		"rows", len(records))

	return buf.Bytes(), nil
}

func (s *progressService) listAllProgress(ctx context.Context, lessonID uint) ([]*models.Progress, error) {
	var all []*models.Progress
	for offset := 0; ; offset += exportPageSize {
		page, total, err := s.repo.Progress().ListByLesson(ctx, lessonID, repositories.ProgressFilters{
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, persistenceFailure("list progress", err)
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}

func (s *progressService) getLesson(ctx context.Context, lessonID uint) (*models.Lesson, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, persistenceFailure("get lesson", err)
	}
	return lesson, nil
}

func progressToRow(record *models.Progress, lessonExercises int64) []interface{} {
	completed := progress.CompletedCount(record.Exercises)
	percent := 0.0
	if lessonExercises > 0 {
		percent = float64(completed) / float64(lessonExercises) * 100
	}

	return []interface{}{
		record.UserID,
		string(record.Status),
		completed,
		lessonExercises,
		percent,
		record.TotalScore,
		record.Accuracy,
		record.TimeSpent,
		formatTime(record.StartedAt),
		formatTime(record.CompletedAt),
		formatTime(record.LastAccessDate),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
