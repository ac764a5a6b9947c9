package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/lesson-progress-service/internal/errors"
	"github.com/SAP-F-2025/lesson-progress-service/internal/grading"
	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines struct and content validation
type Validator struct {
	structValidator   *validator.Validate
	exerciseValidator *ExerciseValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		exerciseValidator: NewExerciseValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// ValidateExercise validates an exercise definition including its content
func (v *Validator) ValidateExercise(exercise *models.Exercise) error {
	if err := v.Validate(exercise); err != nil {
		return err
	}
	if err := v.exerciseValidator.ValidateContent(exercise.Type, exercise.Content); err != nil {
		return errors.NewContentError(err)
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exercise_type", validateExerciseType)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("lesson_category", validateLessonCategory)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateExerciseType(fl validator.FieldLevel) bool {
	return grading.IsKnownType(models.ExerciseType(fl.Field().String()))
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func validateLessonCategory(fl validator.FieldLevel) bool {
	validCategories := []models.LessonCategory{
		models.CategoryGrammar,
		models.CategoryVocabulary,
		models.CategoryConversation,
		models.CategoryReading,
		models.CategoryListening,
	}

	value := fl.Field().String()
	for _, validCategory := range validCategories {
		if string(validCategory) == value {
			return true
		}
	}
	return false
}
