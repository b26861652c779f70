package domain

import (
	"math"
	"sort"
	"time"
)

// ResultCompiler is a domain service that turns a finished traversal into
// the final mastery assessment. Given identical inputs it always produces
// identical output; all randomness and I/O live elsewhere.
type ResultCompiler struct{}

// NewResultCompiler creates a new result compiler.
func NewResultCompiler() *ResultCompiler {
	return &ResultCompiler{}
}

// Compile flips the test to completed and populates its final fields:
// score, overall level, strong and weak areas, and the recommended study
// order (weakest topics first).
func (c *ResultCompiler) Compile(t *PlacementTest, now time.Time) {
	t.Status = StatusCompleted
	t.CompletedAt = &now

	t.Score = 0
	if t.Adaptive.TotalAnswered > 0 {
		t.Score = int(math.Round(float64(t.Adaptive.TotalCorrect) / float64(t.Adaptive.TotalAnswered) * 100))
	}

	avg := AverageRank(t.Adaptive.DifficultyHistory)
	t.OverallLevel = c.OverallLevel(t.Score, avg)

	t.StrongAreas = []string{}
	t.WeakAreas = []string{}
	for _, a := range t.TopicAssessments {
		name := a.TopicName
		if name == "" {
			name = a.TopicID
		}
		switch {
		case a.Level == DifficultyAdvanced || a.Score >= 80:
			t.StrongAreas = append(t.StrongAreas, name)
		case a.Level == DifficultyBeginner || a.Score < 50:
			t.WeakAreas = append(t.WeakAreas, name)
		}
	}

	t.RecommendedPath = c.RecommendedPath(t.TopicAssessments)
}

// OverallLevel maps the final score and average difficulty onto the level
// scale. A high score only counts as advanced when it was earned at high
// difficulty.
func (c *ResultCompiler) OverallLevel(score int, avgDifficulty float64) Difficulty {
	if score >= 80 && avgDifficulty >= 1.5 {
		return DifficultyAdvanced
	}
	if score >= 60 || avgDifficulty >= 1 {
		return DifficultyIntermediate
	}
	return DifficultyBeginner
}

// RecommendedPath orders topic ids by ascending assessment score, so the
// weakest topics come first. The sort is stable: topics with equal scores
// keep their assessment order.
func (c *ResultCompiler) RecommendedPath(assessments []TopicAssessment) []string {
	sorted := make([]TopicAssessment, len(assessments))
	copy(sorted, assessments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})

	path := make([]string, 0, len(sorted))
	for _, a := range sorted {
		path = append(path, a.TopicID)
	}
	return path
}
