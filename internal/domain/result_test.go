package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestResultCompiler_Compile(t *testing.T) {
	c := NewResultCompiler()
	pt := activeTest()
	pt.Adaptive.TotalAnswered = 10
	pt.Adaptive.TotalCorrect = 7
	pt.Adaptive.DifficultyHistory = []Difficulty{
		DifficultyIntermediate, DifficultyAdvanced, DifficultyAdvanced,
	}
	pt.TopicAssessments = []TopicAssessment{
		{TopicID: "top-1", TopicName: "Scales", Level: DifficultyAdvanced, Score: 100},
		{TopicID: "top-2", TopicName: "Chords", Level: DifficultyBeginner, Score: 25},
		{TopicID: "top-3", TopicName: "Rhythm", Level: DifficultyIntermediate, Score: 50},
	}

	now := time.Now()
	c.Compile(pt, now)

	if pt.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", pt.Status)
	}
	if pt.CompletedAt == nil || !pt.CompletedAt.Equal(now) {
		t.Error("completion timestamp not set")
	}
	if pt.Score != 70 {
		t.Errorf("score = %d, want 70", pt.Score)
	}
	if !reflect.DeepEqual(pt.StrongAreas, []string{"Scales"}) {
		t.Errorf("strong areas = %v, want [Scales]", pt.StrongAreas)
	}
	if !reflect.DeepEqual(pt.WeakAreas, []string{"Chords"}) {
		t.Errorf("weak areas = %v, want [Chords]", pt.WeakAreas)
	}
	if !reflect.DeepEqual(pt.RecommendedPath, []string{"top-2", "top-3", "top-1"}) {
		t.Errorf("recommended path = %v, want weakest-first", pt.RecommendedPath)
	}
}

func TestResultCompiler_ScoreZeroWhenNothingAnswered(t *testing.T) {
	c := NewResultCompiler()
	pt := activeTest()
	c.Compile(pt, time.Now())
	if pt.Score != 0 {
		t.Errorf("score = %d, want 0", pt.Score)
	}
}

func TestResultCompiler_Deterministic(t *testing.T) {
	c := NewResultCompiler()
	now := time.Now()

	build := func() *PlacementTest {
		pt := activeTest()
		pt.Adaptive.TotalAnswered = 8
		pt.Adaptive.TotalCorrect = 6
		pt.Adaptive.DifficultyHistory = []Difficulty{DifficultyIntermediate, DifficultyAdvanced}
		pt.TopicAssessments = []TopicAssessment{
			{TopicID: "a", Score: 50},
			{TopicID: "b", Score: 50},
			{TopicID: "c", Score: 100},
		}
		return pt
	}

	t1, t2 := build(), build()
	c.Compile(t1, now)
	c.Compile(t2, now)

	if t1.Score != t2.Score || t1.OverallLevel != t2.OverallLevel {
		t.Error("identical input must compile to identical score and level")
	}
	if !reflect.DeepEqual(t1.RecommendedPath, t2.RecommendedPath) {
		t.Error("recommended path must be deterministic")
	}
	// Stable sort: equal scores keep assessment order.
	if !reflect.DeepEqual(t1.RecommendedPath, []string{"a", "b", "c"}) {
		t.Errorf("path = %v, want [a b c]", t1.RecommendedPath)
	}
}

func TestResultCompiler_OverallLevel(t *testing.T) {
	c := NewResultCompiler()
	tests := []struct {
		name  string
		score int
		avg   float64
		want  Difficulty
	}{
		{"high score high difficulty", 85, 1.6, DifficultyAdvanced},
		{"high score low difficulty", 85, 1.0, DifficultyIntermediate},
		{"good score", 65, 0.5, DifficultyIntermediate},
		{"low score medium difficulty", 40, 1.0, DifficultyIntermediate},
		{"low score low difficulty", 40, 0.5, DifficultyBeginner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.OverallLevel(tt.score, tt.avg); got != tt.want {
				t.Errorf("OverallLevel(%d, %v) = %s, want %s", tt.score, tt.avg, got, tt.want)
			}
		})
	}
}
