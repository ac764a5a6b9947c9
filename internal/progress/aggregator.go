// Package progress folds graded attempts into per-lesson progress records.
//
// Every function here is pure: inputs are never mutated and the same snapshot and attempt
// always produce the same result. Persistence is therefore a plain replace of the record
// returned by RecordAttempt.
package progress

import (
	"math"
	"time"

	"github.com/SAP-F-2025/lesson-progress-service/internal/models"
)

// Outcome is the state derived from an exercise's attempt history
type Outcome struct {
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
}

// Fold recomputes the outcome of an exercise from its full attempt history
func Fold(attempts []models.Attempt) Outcome {
	var outcome Outcome
	for _, attempt := range attempts {
		if attempt.IsCorrect {
			outcome.Completed = true
		}
		if attempt.Score > outcome.Score {
			outcome.Score = attempt.Score
		}
	}
	return outcome
}

// RecordAttempt appends attempt to the exercise's history and returns the updated record.
// Completion is never reverted and the stored score never decreases.
func RecordAttempt(progress models.Progress, exerciseID uint, attempt models.Attempt) models.Progress {
	updated := clone(progress)

	entry := updated.FindExercise(exerciseID)
	if entry == nil {
		updated.Exercises = append(updated.Exercises, models.ExerciseProgress{ExerciseID: exerciseID})
		entry = &updated.Exercises[len(updated.Exercises)-1]
	}

	entry.Attempts = append(entry.Attempts, attempt)
	outcome := Fold(entry.Attempts)
	entry.Completed = entry.Completed || outcome.Completed
	if outcome.Score > entry.Score {
		entry.Score = outcome.Score
	}

	updated.TotalScore = TotalScore(updated.Exercises)
	updated.Accuracy = Accuracy(updated.Exercises)
	if attempt.TimeTaken != nil {
		updated.TimeSpent += *attempt.TimeTaken
	}

	accessed := attempt.Timestamp
	updated.LastAccessDate = &accessed
	if updated.Status == "" || updated.Status == models.ProgressNotStarted {
		updated.Status = models.ProgressInProgress
	}
	if updated.StartedAt == nil {
		updated.StartedAt = &accessed
	}

	return updated
}

// ApplyCompletion marks the lesson completed once every one of its exercises has been
// answered correctly. A completed record stays completed.
func ApplyCompletion(progress models.Progress, lessonExerciseCount int64, now time.Time) models.Progress {
	if progress.Status == models.ProgressCompleted || lessonExerciseCount <= 0 {
		return progress
	}
	if int64(CompletedCount(progress.Exercises)) < lessonExerciseCount {
		return progress
	}

	updated := clone(progress)
	updated.Status = models.ProgressCompleted
	completedAt := now
	updated.CompletedAt = &completedAt
	return updated
}

// TotalScore sums the best score of every exercise
func TotalScore(exercises []models.ExerciseProgress) int {
	total := 0
	for _, exercise := range exercises {
		total += exercise.Score
	}
	return total
}

// CompletedCount counts exercises answered correctly at least once
func CompletedCount(exercises []models.ExerciseProgress) int {
	count := 0
	for _, exercise := range exercises {
		if exercise.Completed {
			count++
		}
	}
	return count
}

// PercentComplete is the share of tracked exercises that are completed, 0..100
func PercentComplete(progress models.Progress) float64 {
	if len(progress.Exercises) == 0 {
		return 0
	}
	return float64(CompletedCount(progress.Exercises)) / float64(len(progress.Exercises)) * 100
}

// AverageScore is the total score divided by the number of tracked exercises
func AverageScore(progress models.Progress) float64 {
	if len(progress.Exercises) == 0 {
		return 0
	}
	return float64(progress.TotalScore) / float64(len(progress.Exercises))
}

// Accuracy is the percentage of correct attempts over all attempts, rounded to two decimals
func Accuracy(exercises []models.ExerciseProgress) float64 {
	var attempts, correct int
	for _, exercise := range exercises {
		for _, attempt := range exercise.Attempts {
			attempts++
			if attempt.IsCorrect {
				correct++
			}
		}
	}
	if attempts == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(attempts)*10000) / 100
}

func clone(progress models.Progress) models.Progress {
	cloned := progress
	if progress.Exercises != nil {
		cloned.Exercises = make([]models.ExerciseProgress, len(progress.Exercises))
		for i, exercise := range progress.Exercises {
			exercise.Attempts = append([]models.Attempt(nil), exercise.Attempts...)
			cloned.Exercises[i] = exercise
		}
	}
	return cloned
}
