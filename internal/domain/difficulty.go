package domain

import "fmt"

// Difficulty represents a question difficulty level. It doubles as the
// outcome label assigned to a topic when the engine leaves it.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty converts a string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return Difficulty(s), nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
	}
}

// Rank returns the numeric position on the difficulty ladder:
// beginner=0, intermediate=1, advanced=2.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return 0
	}
}

// Raise moves one rung up the ladder, capped at advanced.
func (d Difficulty) Raise() Difficulty {
	switch d {
	case DifficultyBeginner:
		return DifficultyIntermediate
	case DifficultyIntermediate:
		return DifficultyAdvanced
	default:
		return DifficultyAdvanced
	}
}

// Lower moves one rung down the ladder, floored at beginner.
func (d Difficulty) Lower() Difficulty {
	switch d {
	case DifficultyAdvanced:
		return DifficultyIntermediate
	case DifficultyIntermediate:
		return DifficultyBeginner
	default:
		return DifficultyBeginner
	}
}

// AverageRank returns the mean ladder rank over a difficulty history.
// An empty history averages to the intermediate rank.
func AverageRank(history []Difficulty) float64 {
	if len(history) == 0 {
		return 1
	}
	sum := 0
	for _, d := range history {
		sum += d.Rank()
	}
	return float64(sum) / float64(len(history))
}
