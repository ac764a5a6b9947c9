package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/lesson-progress-service/internal/grading"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// ExerciseValidator checks authoring rules on exercise content
type ExerciseValidator struct{}

// NewExerciseValidator creates a new exercise validator
func NewExerciseValidator() *ExerciseValidator {
	return &ExerciseValidator{}
}

// ValidateContent validates the content payload against the exercise type
func (v *ExerciseValidator) ValidateContent(exerciseType models.ExerciseType, raw []byte) error {
	content, err := grading.DecodeContent(exerciseType, raw)
	if err != nil {
		return err
	}

	switch c := content.(type) {
	case grading.MultipleChoice:
		return v.validateMultipleChoice(c)
	case grading.FillBlank:
		return v.validateFillBlank(c)
	case grading.WordOrder:
		return v.validateWordOrder(c)
	case grading.Matching:
		return v.validateMatching(c)
	case grading.AudioAnswer:
		return v.validateAudioAnswer(c)
	default:
		return fmt.Errorf("unsupported exercise type: %s", exerciseType)
	}
}

func (v *ExerciseValidator) validateMultipleChoice(c grading.MultipleChoice) error {
	if len(c.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}

	correct := 0
	seen := make(map[string]bool)
	for _, option := range c.Options {
		text := strings.ToLower(strings.TrimSpace(option.Text))
		if text == "" {
			return fmt.Errorf("option text cannot be empty")
		}
		if seen[text] {
			return fmt.Errorf("duplicate option: %s", option.Text)
		}
		seen[text] = true
		if option.IsCorrect {
			correct++
		}
	}

	if correct != 1 {
		return fmt.Errorf("must have exactly 1 correct option, found %d", correct)
	}
	return nil
}

func (v *ExerciseValidator) validateFillBlank(c grading.FillBlank) error {
	if len(c.Blanks) == 0 {
		return fmt.Errorf("must have at least 1 blank")
	}
	for i, blank := range c.Blanks {
		if strings.TrimSpace(blank.CorrectAnswer) == "" {
			return fmt.Errorf("blank %d must have a correct answer", i+1)
		}
	}
	return nil
}

func (v *ExerciseValidator) validateWordOrder(c grading.WordOrder) error {
	if len(c.CorrectOrder) == 0 {
		return fmt.Errorf("correct order cannot be empty")
	}
	if len(c.Words) != len(c.CorrectOrder) {
		return fmt.Errorf("words and correct order must have the same length")
	}

	remaining := make(map[string]int)
	for _, word := range c.Words {
		remaining[strings.ToLower(strings.TrimSpace(word))]++
	}
	for _, word := range c.CorrectOrder {
		key := strings.ToLower(strings.TrimSpace(word))
		if remaining[key] == 0 {
			return fmt.Errorf("correct order uses a word not in the word list: %s", word)
		}
		remaining[key]--
	}
	return nil
}

func (v *ExerciseValidator) validateMatching(c grading.Matching) error {
	if len(c.Pairs) < 2 {
		return fmt.Errorf("must have at least 2 pairs")
	}

	lefts := make(map[string]bool)
	for _, pair := range c.Pairs {
		left := strings.ToLower(strings.TrimSpace(pair.Left))
		if left == "" || strings.TrimSpace(pair.Right) == "" {
			return fmt.Errorf("pair items cannot be empty")
		}
		if lefts[left] {
			return fmt.Errorf("duplicate left item: %s", pair.Left)
		}
		lefts[left] = true
	}
	return nil
}

func (v *ExerciseValidator) validateAudioAnswer(c grading.AudioAnswer) error {
	if strings.TrimSpace(c.AudioURL) == "" {
		return fmt.Errorf("audio url is required")
	}
	if len(c.AcceptedTranscriptions) == 0 {
		return fmt.Errorf("must have at least 1 accepted transcription")
	}
	return nil
}
