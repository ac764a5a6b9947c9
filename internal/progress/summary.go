package progress

import "github.com/SAP-F-2025/lesson-progress-service/internal/models"

// Summary is the lesson-level view returned after a submission
type Summary struct {
	TotalScore      int     `json:"total_score"`
	PercentComplete float64 `json:"percent_complete"`
	AverageScore    float64 `json:"average_score"`
	Accuracy        float64 `json:"accuracy"`
	TimeSpent       int     `json:"time_spent"`
	Completed       bool    `json:"completed"`
}

func Summarize(progress models.Progress) Summary {
	return Summary{
		TotalScore:      progress.TotalScore,
		PercentComplete: PercentComplete(progress),
		AverageScore:    AverageScore(progress),
		Accuracy:        progress.Accuracy,
		TimeSpent:       progress.TimeSpent,
		Completed:       progress.Status == models.ProgressCompleted,
	}
}

// ExerciseSummary is the per-exercise view of a progress record
type ExerciseSummary struct {
	Completed bool `json:"completed"`
	Attempts  int  `json:"attempts"`
	Score     int  `json:"score"`
}

// SummarizeExercise returns zeros when the exercise has no recorded attempts
func SummarizeExercise(progress *models.Progress, exerciseID uint) ExerciseSummary {
	if progress == nil {
		return ExerciseSummary{}
	}
	entry := progress.FindExercise(exerciseID)
	if entry == nil {
		return ExerciseSummary{}
	}
	return ExerciseSummary{
		Completed: entry.Completed,
		Attempts:  len(entry.Attempts),
		Score:     entry.Score,
	}
}
