package domain

import "testing"

func TestDifficulty_Raise(t *testing.T) {
	tests := []struct {
		in   Difficulty
		want Difficulty
	}{
		{DifficultyBeginner, DifficultyIntermediate},
		{DifficultyIntermediate, DifficultyAdvanced},
		{DifficultyAdvanced, DifficultyAdvanced},
	}
	for _, tt := range tests {
		if got := tt.in.Raise(); got != tt.want {
			t.Errorf("Raise(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDifficulty_Lower(t *testing.T) {
	tests := []struct {
		in   Difficulty
		want Difficulty
	}{
		{DifficultyAdvanced, DifficultyIntermediate},
		{DifficultyIntermediate, DifficultyBeginner},
		{DifficultyBeginner, DifficultyBeginner},
	}
	for _, tt := range tests {
		if got := tt.in.Lower(); got != tt.want {
			t.Errorf("Lower(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDifficulty_LadderBounds(t *testing.T) {
	// No amount of raising or lowering escapes the ladder.
	d := DifficultyIntermediate
	for i := 0; i < 10; i++ {
		d = d.Raise()
	}
	if d != DifficultyAdvanced {
		t.Errorf("repeated Raise = %s, want advanced", d)
	}
	for i := 0; i < 10; i++ {
		d = d.Lower()
	}
	if d != DifficultyBeginner {
		t.Errorf("repeated Lower = %s, want beginner", d)
	}
}

func TestAverageRank(t *testing.T) {
	tests := []struct {
		name    string
		history []Difficulty
		want    float64
	}{
		{"empty defaults to intermediate", nil, 1},
		{"all beginner", []Difficulty{DifficultyBeginner, DifficultyBeginner}, 0},
		{"mixed", []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}, 1},
		{"advanced heavy", []Difficulty{DifficultyIntermediate, DifficultyAdvanced}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageRank(tt.history); got != tt.want {
				t.Errorf("AverageRank = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	if _, err := ParseDifficulty("intermediate"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseDifficulty("expert"); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}
