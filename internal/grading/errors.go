package grading

import "errors"

var (
	// ErrUnknownExerciseType means the exercise record carries a type tag outside the supported set
	ErrUnknownExerciseType = errors.New("unknown exercise type")

	// ErrInvalidContent means the stored answer key cannot be parsed for its type
	ErrInvalidContent = errors.New("invalid exercise content")

	// ErrNoCorrectOption means a multiple choice exercise has no option flagged correct
	ErrNoCorrectOption = errors.New("multiple choice exercise has no correct option")

	// ErrInvalidAnswerShape means the submitted answer does not have the shape the exercise expects
	ErrInvalidAnswerShape = errors.New("invalid answer shape")
)
