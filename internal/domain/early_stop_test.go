package domain

import "testing"

func TestEvaluateTopicStop(t *testing.T) {
	tests := []struct {
		name      string
		state     AdaptiveState
		current   Difficulty
		wantStop  bool
		wantLevel Difficulty
	}{
		{
			name:      "strong at intermediate",
			state:     AdaptiveState{ConsecutiveCorrect: 2, CurrentTopicAnswered: 2, CurrentTopicCorrect: 2},
			current:   DifficultyIntermediate,
			wantStop:  true,
			wantLevel: DifficultyAdvanced,
		},
		{
			// The strong threshold deliberately fires only from intermediate.
			name:     "strong streak at advanced keeps going",
			state:    AdaptiveState{ConsecutiveCorrect: 2, CurrentTopicAnswered: 2, CurrentTopicCorrect: 2},
			current:  DifficultyAdvanced,
			wantStop: false,
		},
		{
			name:      "weak at beginner",
			state:     AdaptiveState{ConsecutiveIncorrect: 2, CurrentTopicAnswered: 3},
			current:   DifficultyBeginner,
			wantStop:  true,
			wantLevel: DifficultyBeginner,
		},
		{
			name:     "weak streak at intermediate keeps going",
			state:    AdaptiveState{ConsecutiveIncorrect: 2, CurrentTopicAnswered: 2},
			current:  DifficultyIntermediate,
			wantStop: false,
		},
		{
			name:      "budget exhausted at 50 percent",
			state:     AdaptiveState{ConsecutiveCorrect: 1, CurrentTopicAnswered: 4, CurrentTopicCorrect: 2},
			current:   DifficultyIntermediate,
			wantStop:  true,
			wantLevel: DifficultyIntermediate,
		},
		{
			name:      "budget exhausted weak",
			state:     AdaptiveState{CurrentTopicAnswered: 4, CurrentTopicCorrect: 1},
			current:   DifficultyIntermediate,
			wantStop:  true,
			wantLevel: DifficultyBeginner,
		},
		{
			name:     "mid-topic, no thresholds hit",
			state:    AdaptiveState{ConsecutiveCorrect: 1, CurrentTopicAnswered: 1, CurrentTopicCorrect: 1},
			current:  DifficultyIntermediate,
			wantStop: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, level := EvaluateTopicStop(tt.state, tt.current)
			if stop != tt.wantStop {
				t.Fatalf("stop = %v, want %v", stop, tt.wantStop)
			}
			if stop && level != tt.wantLevel {
				t.Errorf("level = %s, want %s", level, tt.wantLevel)
			}
		})
	}
}
