// Package seed loads lessons and their exercises from YAML files into the stores.
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// File is the YAML structure of a seed file
type File struct {
	Lessons []LessonFile `yaml:"lessons"`
}

// LessonFile represents one lesson with its exercises
type LessonFile struct {
	ID          uint           `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Level       int            `yaml:"level"`
	Category    string         `yaml:"category"`
	Order       int            `yaml:"order"`
	Duration    int            `yaml:"duration"`
	IsPublished bool           `yaml:"is_published"`
	Exercises   []ExerciseFile `yaml:"exercises"`
}

// ExerciseFile represents one exercise. Content keeps the camelCase keys of the stored
// content document.
type ExerciseFile struct {
	ID           uint      `yaml:"id"`
	Type         string    `yaml:"type"`
	Question     string    `yaml:"question"`
	Instructions string    `yaml:"instructions"`
	Points       int       `yaml:"points"`
	Difficulty   string    `yaml:"difficulty"`
	TimeLimit    int       `yaml:"time_limit"`
	Order        int       `yaml:"order"`
	Content      yaml.Node `yaml:"content"`
}

// LoadFile reads and parses a seed file from disk
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seed YAML
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &file, nil
}

// ToLesson converts the YAML lesson, without its exercises
func (l LessonFile) ToLesson() *models.Lesson {
	return &models.Lesson{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Level:       l.Level,
		Category:    models.LessonCategory(l.Category),
		Order:       l.Order,
		Duration:    l.Duration,
		IsPublished: l.IsPublished,
	}
}

// ToExercise converts the YAML exercise, filling the model defaults. position is the
// 1-based index used when no order is given.
func (e ExerciseFile) ToExercise(lessonID uint, position int) (*models.Exercise, error) {
	content, err := contentJSON(&e.Content)
	if err != nil {
		return nil, fmt.Errorf("exercise %d content: %w", position, err)
	}

	exercise := &models.Exercise{
		ID:           e.ID,
		LessonID:     lessonID,
		Type:         models.ExerciseType(e.Type),
		Question:     e.Question,
		Instructions: e.Instructions,
		Content:      content,
		Points:       e.Points,
		Difficulty:   models.DifficultyLevel(e.Difficulty),
		TimeLimit:    e.TimeLimit,
		Order:        e.Order,
	}
	if exercise.Points == 0 {
		exercise.Points = models.DefaultExercisePoints
	}
	if exercise.TimeLimit == 0 {
		exercise.TimeLimit = models.DefaultExerciseTimeLimit
	}
	if exercise.Difficulty == "" {
		exercise.Difficulty = models.DifficultyMedium
	}
	if exercise.Order == 0 {
		exercise.Order = position
	}
	return exercise, nil
}

func contentJSON(node *yaml.Node) (datatypes.JSON, error) {
	if node.Kind == 0 {
		return nil, nil
	}

	var value interface{}
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
