package grading

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// decodeAnswer unmarshals a submitted answer strictly. JSON null, missing values and
// values of the wrong JSON kind are rejected rather than coerced.
func decodeAnswer(raw json.RawMessage, dest interface{}) error {
	if isNull(raw) {
		return fmt.Errorf("%w: answer is required", ErrInvalidAnswerShape)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswerShape, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: unexpected trailing data", ErrInvalidAnswerShape)
	}
	return nil
}

func decodeStringAnswer(raw json.RawMessage) (string, error) {
	var answer string
	if err := decodeAnswer(raw, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

func decodeStringListAnswer(raw json.RawMessage) ([]string, error) {
	var items []json.RawMessage
	if err := decodeAnswer(raw, &items); err != nil {
		return nil, err
	}

	answers := make([]string, len(items))
	for i, item := range items {
		if isNull(item) {
			return nil, fmt.Errorf("%w: item %d is null", ErrInvalidAnswerShape, i)
		}
		if err := json.Unmarshal(item, &answers[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d must be a string", ErrInvalidAnswerShape, i)
		}
	}
	return answers, nil
}

func decodeMatchingAnswer(raw json.RawMessage) ([]models.MatchPair, error) {
	var items []json.RawMessage
	if err := decodeAnswer(raw, &items); err != nil {
		return nil, err
	}

	pairs := make([]models.MatchPair, len(items))
	for i, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("%w: match %d must be an object", ErrInvalidAnswerShape, i)
		}
		left, okLeft := fields["left"]
		right, okRight := fields["right"]
		if !okLeft || !okRight {
			return nil, fmt.Errorf("%w: match %d needs left and right", ErrInvalidAnswerShape, i)
		}
		if err := json.Unmarshal(left, &pairs[i].Left); err != nil || isNull(left) {
			return nil, fmt.Errorf("%w: match %d left must be a string", ErrInvalidAnswerShape, i)
		}
		if err := json.Unmarshal(right, &pairs[i].Right); err != nil || isNull(right) {
			return nil, fmt.Errorf("%w: match %d right must be a string", ErrInvalidAnswerShape, i)
		}
	}
	return pairs, nil
}

// DecodeAnswer decodes a submitted answer into the shape the content expects:
// string for multiple_choice and audio_answer, []string for fill_blank and word_order,
// []models.MatchPair for matching.
func DecodeAnswer(content Content, raw json.RawMessage) (interface{}, error) {
	switch c := content.(type) {
	case MultipleChoice, AudioAnswer:
		return decodeStringAnswer(raw)
	case FillBlank:
		answers, err := decodeStringListAnswer(raw)
		if err != nil {
			return nil, err
		}
		if len(answers) != len(c.Blanks) {
			return nil, fmt.Errorf("%w: expected %d blanks, got %d", ErrInvalidAnswerShape, len(c.Blanks), len(answers))
		}
		return answers, nil
	case WordOrder:
		return decodeStringListAnswer(raw)
	case Matching:
		return decodeMatchingAnswer(raw)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownExerciseType, content)
	}
}
