package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/lesson-progress-service/internal/errors"
	"github.com/SAP-F-2025/lesson-progress-service/internal/grading"
	"github.com/SAP-F-2025/lesson-progress-service/internal/scoring"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrConflict = errors.New("resource conflict")

	// Lookup errors
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrLessonNotFound   = errors.New("lesson not found")

	// Persistence errors. Nothing is written when these are returned.
	ErrPersistenceFailure = errors.New("persistence failure")

	// Grading errors
	ErrUnknownExerciseType = grading.ErrUnknownExerciseType
	ErrInvalidContent      = grading.ErrInvalidContent
	ErrNoCorrectOption     = grading.ErrNoCorrectOption
	ErrInvalidAnswerShape  = grading.ErrInvalidAnswerShape

	// Scoring errors
	ErrInvalidTimeLimit  = scoring.ErrInvalidTimeLimit
	ErrNegativeTimeTaken = scoring.ErrNegativeTimeTaken
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// IntegrityError reports an exercise record that cannot be graded as stored
type IntegrityError struct {
	ExerciseID uint   `json:"exercise_id"`
	Reason     string `json:"reason"`
	Err        error  `json:"-"`
}

func (ie *IntegrityError) Error() string {
	return fmt.Sprintf("exercise %d failed integrity check (%s): %v", ie.ExerciseID, ie.Reason, ie.Err)
}

func (ie *IntegrityError) Unwrap() error {
	return ie.Err
}

// ===== ERROR HELPERS =====

func NewIntegrityError(exerciseID uint, reason string, err error) *IntegrityError {
	return &IntegrityError{
		ExerciseID: exerciseID,
		Reason:     reason,
		Err:        err,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExerciseNotFound) ||
		errors.Is(err, ErrLessonNotFound)
}

// IsValidation checks if error represents a caller supplied bad input
func IsValidation(err error) bool {
	if IsIntegrity(err) {
		return false
	}
	if errors.Is(err, ErrInvalidAnswerShape) ||
		errors.Is(err, ErrNegativeTimeTaken) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsIntegrity checks if error is a data integrity fault on a stored exercise
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsPersistence checks if error came from the storage layer
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistenceFailure)
}

func persistenceFailure(operation string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistenceFailure, operation, err)
}
