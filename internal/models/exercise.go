package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExerciseType string

const (
	ExerciseMultipleChoice ExerciseType = "multiple_choice"
	ExerciseFillBlank      ExerciseType = "fill_blank"
	ExerciseWordOrder      ExerciseType = "word_order"
	ExerciseMatching       ExerciseType = "matching"
	ExerciseAudioAnswer    ExerciseType = "audio_answer"
)

// ExerciseTypes lists every supported exercise type
var ExerciseTypes = []ExerciseType{
	ExerciseMultipleChoice,
	ExerciseFillBlank,
	ExerciseWordOrder,
	ExerciseMatching,
	ExerciseAudioAnswer,
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

const (
	DefaultExercisePoints    = 10
	DefaultExerciseTimeLimit = 60 // seconds
)

type Exercise struct {
	ID           uint            `json:"id" gorm:"primaryKey" bson:"_id"`
	LessonID     uint            `json:"lesson_id" gorm:"not null;index" bson:"lesson_id" validate:"required"`
	Type         ExerciseType    `json:"type" gorm:"type:varchar(32);not null" bson:"type" validate:"required,exercise_type"`
	Question     string          `json:"question" gorm:"type:text;not null" bson:"question" validate:"required"`
	Instructions string          `json:"instructions" gorm:"type:text" bson:"instructions"`
	Content      datatypes.JSON  `json:"content" gorm:"type:jsonb;not null" bson:"content" validate:"required"`
	Points       int             `json:"points" gorm:"not null;default:10" bson:"points" validate:"min=1"`
	Difficulty   DifficultyLevel `json:"difficulty" gorm:"type:varchar(16);default:medium" bson:"difficulty" validate:"omitempty,difficulty_level"`
	TimeLimit    int             `json:"time_limit" gorm:"not null;default:60" bson:"time_limit" validate:"min=10"` // seconds
	Order        int             `json:"order" gorm:"column:display_order;not null" bson:"order" validate:"min=1"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// ===== CONTENT SCHEMAS =====

type ChoiceOption struct {
	Text        string  `json:"text"`
	IsCorrect   bool    `json:"isCorrect"`
	Explanation *string `json:"explanation,omitempty"`
}

type MultipleChoiceContent struct {
	Options []ChoiceOption `json:"options"`
}

type Blank struct {
	Position      int      `json:"position"`
	CorrectAnswer string   `json:"correctAnswer"`
	Alternatives  []string `json:"alternatives"`
}

type FillBlankContent struct {
	Text   string  `json:"text"`
	Blanks []Blank `json:"blanks"`
}

type WordOrderContent struct {
	Words        []string `json:"words"`
	CorrectOrder []string `json:"correctOrder"`
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingContent struct {
	Pairs []MatchPair `json:"pairs"`
}

type AudioAnswerContent struct {
	AudioURL               string   `json:"audioUrl"`
	AcceptedTranscriptions []string `json:"acceptedTranscriptions"`
}
