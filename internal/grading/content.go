package grading

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// Content is the answer key of an exercise. The set of implementations is closed:
// one per models.ExerciseType.
type Content interface {
	Type() models.ExerciseType
	content()
}

type MultipleChoice models.MultipleChoiceContent
type FillBlank models.FillBlankContent
type WordOrder models.WordOrderContent
type Matching models.MatchingContent
type AudioAnswer models.AudioAnswerContent

func (MultipleChoice) Type() models.ExerciseType { return models.ExerciseMultipleChoice }
func (FillBlank) Type() models.ExerciseType      { return models.ExerciseFillBlank }
func (WordOrder) Type() models.ExerciseType      { return models.ExerciseWordOrder }
func (Matching) Type() models.ExerciseType       { return models.ExerciseMatching }
func (AudioAnswer) Type() models.ExerciseType    { return models.ExerciseAudioAnswer }

func (MultipleChoice) content() {}
func (FillBlank) content()      {}
func (WordOrder) content()      {}
func (Matching) content()       {}
func (AudioAnswer) content()    {}

// IsKnownType reports whether t is one of the supported exercise types
func IsKnownType(t models.ExerciseType) bool {
	for _, known := range models.ExerciseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DecodeContent parses the stored content payload of an exercise into its typed variant
func DecodeContent(exerciseType models.ExerciseType, raw []byte) (Content, error) {
	switch exerciseType {
	case models.ExerciseMultipleChoice:
		var c MultipleChoice
		if err := decodeContent(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case models.ExerciseFillBlank:
		var c FillBlank
		if err := decodeContent(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case models.ExerciseWordOrder:
		var c WordOrder
		if err := decodeContent(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case models.ExerciseMatching:
		var c Matching
		if err := decodeContent(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case models.ExerciseAudioAnswer:
		var c AudioAnswer
		if err := decodeContent(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseType, exerciseType)
	}
}

// DecodeExercise is a shortcut for DecodeContent(exercise.Type, exercise.Content)
func DecodeExercise(exercise *models.Exercise) (Content, error) {
	return DecodeContent(exercise.Type, exercise.Content)
}

func decodeContent(raw []byte, dest interface{}) error {
	if isNull(raw) {
		return fmt.Errorf("%w: content is empty", ErrInvalidContent)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return nil
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
