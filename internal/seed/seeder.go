package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
)

// Result counts what a seed run wrote
type Result struct {
	LessonsCreated   int `json:"lessons_created"`
	LessonsSkipped   int `json:"lessons_skipped"`
	LessonsRepaired  int `json:"lessons_repaired"`
	ExercisesCreated int `json:"exercises_created"`
}

type Seeder struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewSeeder(repo repositories.Repository, validator *validator.Validator, logger *slog.Logger) *Seeder {
	return &Seeder{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

type lessonPlan struct {
	lesson    *models.Lesson
	exercises []*models.Exercise
}

// Apply validates the whole file, then creates every lesson and its exercises.
// A lesson with an explicit id that already exists is not created again, but any of its
// exercises missing from the store (by display order) are, so an interrupted run is
// completed by the next one.
func (s *Seeder) Apply(ctx context.Context, file *File) (*Result, error) {
	plans, err := s.plan(file)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, plan := range plans {
		if plan.lesson.ID != 0 {
			_, err := s.repo.Lesson().GetByID(ctx, plan.lesson.ID)
			if err == nil {
				if err := s.repair(ctx, plan, result); err != nil {
					return result, err
				}
				continue
			}
			if !repositories.IsNotFoundError(err) {
				return result, fmt.Errorf("failed to check lesson %d: %w", plan.lesson.ID, err)
			}
		}

		if err := s.repo.Lesson().Create(ctx, plan.lesson); err != nil {
			return result, fmt.Errorf("failed to create lesson %q: %w", plan.lesson.Title, err)
		}
		result.LessonsCreated++

		if err := s.createExercises(ctx, plan.lesson, plan.exercises, result); err != nil {
			return result, err
		}

		s.logger.Info("Seeded lesson",
			"lesson_id", plan.lesson.ID,
			"title", plan.lesson.Title,
			"exercises", len(plan.exercises))
	}

	return result, nil
}

// repair creates the exercises of an already stored lesson that the store does not have yet
func (s *Seeder) repair(ctx context.Context, plan lessonPlan, result *Result) error {
	stored, err := s.repo.Exercise().ListByLesson(ctx, plan.lesson.ID)
	if err != nil {
		return fmt.Errorf("failed to list exercises of lesson %d: %w", plan.lesson.ID, err)
	}

	present := make(map[int]bool, len(stored))
	for _, exercise := range stored {
		present[exercise.Order] = true
	}

	var missing []*models.Exercise
	for _, exercise := range plan.exercises {
		if !present[exercise.Order] {
			missing = append(missing, exercise)
		}
	}

	if len(missing) == 0 {
		s.logger.Info("Lesson already seeded, skipping", "lesson_id", plan.lesson.ID, "title", plan.lesson.Title)
		result.LessonsSkipped++
		return nil
	}

	s.logger.Warn("Lesson is missing exercises, completing it",
		"lesson_id", plan.lesson.ID,
		"title", plan.lesson.Title,
		"stored", len(stored),
		"missing", len(missing))
	if err := s.createExercises(ctx, plan.lesson, missing, result); err != nil {
		return err
	}
	result.LessonsRepaired++
	return nil
}

func (s *Seeder) createExercises(ctx context.Context, lesson *models.Lesson, exercises []*models.Exercise, result *Result) error {
	for _, exercise := range exercises {
		exercise.LessonID = lesson.ID
		if err := s.repo.Exercise().Create(ctx, exercise); err != nil {
			return fmt.Errorf("failed to create exercise %d of lesson %q: %w", exercise.Order, lesson.Title, err)
		}
		result.ExercisesCreated++
	}
	return nil
}

func (s *Seeder) plan(file *File) ([]lessonPlan, error) {
	plans := make([]lessonPlan, 0, len(file.Lessons))
	for i, lessonFile := range file.Lessons {
		lesson := lessonFile.ToLesson()
		if err := s.validator.Validate(lesson); err != nil {
			return nil, fmt.Errorf("lesson %d (%q): %w", i+1, lesson.Title, err)
		}

		plan := lessonPlan{lesson: lesson}
		for j, exerciseFile := range lessonFile.Exercises {
			// the real lesson id is only known after insert
			exercise, err := exerciseFile.ToExercise(placeholderLessonID(lesson), j+1)
			if err != nil {
				return nil, fmt.Errorf("lesson %d (%q): %w", i+1, lesson.Title, err)
			}
			if err := s.validator.ValidateExercise(exercise); err != nil {
				return nil, fmt.Errorf("lesson %d (%q) exercise %d: %w", i+1, lesson.Title, j+1, err)
			}
			plan.exercises = append(plan.exercises, exercise)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func placeholderLessonID(lesson *models.Lesson) uint {
	if lesson.ID != 0 {
		return lesson.ID
	}
	return 1
}
