package domain

import "testing"

func TestAdaptiveState_RecordAnswer_StreaksReset(t *testing.T) {
	s := NewAdaptiveState(DifficultyIntermediate)

	s.RecordAnswer(true)
	s.RecordAnswer(true)
	if s.ConsecutiveCorrect != 2 || s.ConsecutiveIncorrect != 0 {
		t.Errorf("after 2 correct: streaks = %d/%d, want 2/0", s.ConsecutiveCorrect, s.ConsecutiveIncorrect)
	}

	s.RecordAnswer(false)
	if s.ConsecutiveCorrect != 0 || s.ConsecutiveIncorrect != 1 {
		t.Errorf("after incorrect: streaks = %d/%d, want 0/1", s.ConsecutiveCorrect, s.ConsecutiveIncorrect)
	}

	if s.TotalAnswered != 3 || s.TotalCorrect != 2 {
		t.Errorf("totals = %d answered / %d correct, want 3/2", s.TotalAnswered, s.TotalCorrect)
	}
	if s.CurrentTopicAnswered != 3 || s.CurrentTopicCorrect != 2 {
		t.Errorf("topic counters = %d/%d, want 3/2", s.CurrentTopicAnswered, s.CurrentTopicCorrect)
	}
}

func TestAdaptiveState_RecordSkip(t *testing.T) {
	s := NewAdaptiveState(DifficultyIntermediate)
	s.RecordAnswer(true)
	s.RecordAnswer(true)

	s.RecordSkip()

	if s.ConsecutiveCorrect != 0 || s.ConsecutiveIncorrect != 0 {
		t.Errorf("skip must reset both streaks, got %d/%d", s.ConsecutiveCorrect, s.ConsecutiveIncorrect)
	}
	if s.TotalAnswered != 3 {
		t.Errorf("skip counts toward answered: got %d, want 3", s.TotalAnswered)
	}
	if s.TotalCorrect != 2 {
		t.Errorf("skip must not touch correctness totals: got %d, want 2", s.TotalCorrect)
	}
}

func TestAdaptiveState_ResetTopic(t *testing.T) {
	s := NewAdaptiveState(DifficultyIntermediate)
	s.RecordAnswer(true)
	s.RecordAnswer(false)

	s.ResetTopic()

	if s.CurrentTopicAnswered != 0 || s.CurrentTopicCorrect != 0 {
		t.Error("topic counters should be zeroed")
	}
	if s.ConsecutiveCorrect != 0 || s.ConsecutiveIncorrect != 0 {
		t.Error("streaks should be zeroed")
	}
	if s.TotalAnswered != 2 || s.TotalCorrect != 1 {
		t.Error("global totals must survive a topic reset")
	}
}

func TestNewAdaptiveState_SeedsHistory(t *testing.T) {
	s := NewAdaptiveState(DifficultyIntermediate)
	if len(s.DifficultyHistory) != 1 || s.DifficultyHistory[0] != DifficultyIntermediate {
		t.Errorf("history = %v, want [intermediate]", s.DifficultyHistory)
	}
}
