// Package scoring turns a graded answer into points using the time bonus curve.
package scoring

import (
	"errors"
	"fmt"
	"math"
)

// MaxTimeBonus is the extra fraction of points awarded for an instant correct answer
const MaxTimeBonus = 0.2

var (
	ErrInvalidTimeLimit  = errors.New("time limit must be positive")
	ErrNegativeTimeTaken = errors.New("time taken cannot be negative")
)

// Score returns the points earned for an answer. A correct answer answered before the time
// limit earns up to MaxTimeBonus extra, decaying linearly to no bonus at the limit.
// A nil timeTaken means the time was not measured and no bonus applies.
func Score(points, timeLimit int, timeTaken *int, isCorrect bool) (int, error) {
	if timeLimit <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimeLimit, timeLimit)
	}
	if timeTaken != nil && *timeTaken < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeTimeTaken, *timeTaken)
	}
	if !isCorrect {
		return 0, nil
	}

	return int(math.Round(float64(points) * Multiplier(timeLimit, timeTaken))), nil
}

// Multiplier returns the time bonus factor in [1, 1+MaxTimeBonus]
func Multiplier(timeLimit int, timeTaken *int) float64 {
	if timeTaken == nil || *timeTaken >= timeLimit || timeLimit <= 0 {
		return 1
	}
	return 1 + MaxTimeBonus*(1-float64(*timeTaken)/float64(timeLimit))
}
