package grading

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

const (
	HintMultipleChoice = "Keep practicing!"
	HintFillBlank      = "Check your spelling and try again"
	HintWordOrder      = "The word order is not correct"
	HintMatching       = "Some matches are incorrect"
	HintAudioAnswer    = "Try listening again carefully"
)

// Result is the outcome of checking one answer. Explanation is nil when the answer is correct.
type Result struct {
	IsCorrect   bool    `json:"is_correct"`
	Explanation *string `json:"explanation"`
}

// Check grades a submitted answer against the exercise content. The answer is decoded
// for the content's variant first, so a wrong shape never reaches a checker.
func Check(content Content, raw json.RawMessage) (Result, error) {
	answer, err := DecodeAnswer(content, raw)
	if err != nil {
		return Result{}, err
	}

	switch c := content.(type) {
	case MultipleChoice:
		return checkMultipleChoice(c, answer.(string))
	case FillBlank:
		return checkFillBlank(c, answer.([]string)), nil
	case WordOrder:
		return checkWordOrder(c, answer.([]string)), nil
	case Matching:
		return checkMatching(c, answer.([]models.MatchPair)), nil
	case AudioAnswer:
		return checkAudioAnswer(c, answer.(string)), nil
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownExerciseType, content)
	}
}

func checkMultipleChoice(c MultipleChoice, answer string) (Result, error) {
	var correct *models.ChoiceOption
	for i := range c.Options {
		if c.Options[i].IsCorrect {
			correct = &c.Options[i]
			break
		}
	}
	if correct == nil {
		return Result{}, ErrNoCorrectOption
	}

	selected := normalize(answer)
	if selected == normalize(correct.Text) {
		return correctResult(), nil
	}

	for _, option := range c.Options {
		if normalize(option.Text) == selected && option.Explanation != nil && *option.Explanation != "" {
			return incorrectResult(*option.Explanation), nil
		}
	}
	return incorrectResult(HintMultipleChoice), nil
}

// checkFillBlank expects answers already aligned to the blanks by DecodeAnswer
func checkFillBlank(c FillBlank, answers []string) Result {
	for i, blank := range c.Blanks {
		if !matchesBlank(blank, answers[i]) {
			return incorrectResult(HintFillBlank)
		}
	}
	return correctResult()
}

func matchesBlank(blank models.Blank, answer string) bool {
	given := normalize(answer)
	if given == normalize(blank.CorrectAnswer) {
		return true
	}
	for _, alternative := range blank.Alternatives {
		if given == normalize(alternative) {
			return true
		}
	}
	return false
}

func checkWordOrder(c WordOrder, words []string) Result {
	if len(words) != len(c.CorrectOrder) {
		return incorrectResult(HintWordOrder)
	}
	for i, word := range words {
		if normalize(word) != normalize(c.CorrectOrder[i]) {
			return incorrectResult(HintWordOrder)
		}
	}
	return correctResult()
}

func checkMatching(c Matching, submitted []models.MatchPair) Result {
	// first match wins when a left item is repeated
	matches := make(map[string]string, len(submitted))
	for _, pair := range submitted {
		left := normalize(pair.Left)
		if _, seen := matches[left]; !seen {
			matches[left] = normalize(pair.Right)
		}
	}

	for _, pair := range c.Pairs {
		right, ok := matches[normalize(pair.Left)]
		if !ok || right != normalize(pair.Right) {
			return incorrectResult(HintMatching)
		}
	}
	return correctResult()
}

func checkAudioAnswer(c AudioAnswer, transcription string) Result {
	given := normalize(transcription)
	for _, accepted := range c.AcceptedTranscriptions {
		if given == normalize(accepted) {
			return correctResult()
		}
	}
	return incorrectResult(HintAudioAnswer)
}

// normalize trims surrounding whitespace and lower-cases text before comparison
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func correctResult() Result {
	return Result{IsCorrect: true}
}

func incorrectResult(explanation string) Result {
	return Result{IsCorrect: false, Explanation: &explanation}
}
