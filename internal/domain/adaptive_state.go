package domain

// AdaptiveState holds the live performance signals that drive every
// difficulty and traversal decision. It is embedded in the test aggregate
// and mutated in place by the orchestrator.
type AdaptiveState struct {
	ConsecutiveCorrect   int `json:"consecutive_correct"`
	ConsecutiveIncorrect int `json:"consecutive_incorrect"`
	TotalCorrect         int `json:"total_correct"`
	TotalAnswered        int `json:"total_answered"`
	CurrentTopicCorrect  int `json:"current_topic_correct"`
	CurrentTopicAnswered int `json:"current_topic_answered"`

	// DifficultyHistory logs every difficulty the cursor has been set to.
	// It is only read at completion, to compute the average difficulty.
	DifficultyHistory []Difficulty `json:"difficulty_history"`
}

// NewAdaptiveState returns a zeroed state seeded with the starting
// difficulty in its history.
func NewAdaptiveState(start Difficulty) AdaptiveState {
	return AdaptiveState{DifficultyHistory: []Difficulty{start}}
}

// RecordAnswer updates totals and streaks for a real (non-skip) answer.
// A correct answer resets the incorrect streak and vice versa.
func (s *AdaptiveState) RecordAnswer(correct bool) {
	s.TotalAnswered++
	s.CurrentTopicAnswered++

	if correct {
		s.TotalCorrect++
		s.CurrentTopicCorrect++
		s.ConsecutiveCorrect++
		s.ConsecutiveIncorrect = 0
	} else {
		s.ConsecutiveIncorrect++
		s.ConsecutiveCorrect = 0
	}
}

// RecordSkip counts the skip toward the answered totals and resets both
// streaks without touching the correctness totals.
func (s *AdaptiveState) RecordSkip() {
	s.TotalAnswered++
	s.CurrentTopicAnswered++
	s.ConsecutiveCorrect = 0
	s.ConsecutiveIncorrect = 0
}

// ResetTopic clears the per-topic counters and both streaks. Called on
// every topic transition.
func (s *AdaptiveState) ResetTopic() {
	s.CurrentTopicCorrect = 0
	s.CurrentTopicAnswered = 0
	s.ConsecutiveCorrect = 0
	s.ConsecutiveIncorrect = 0
}

// PushDifficulty appends a difficulty to the history log.
func (s *AdaptiveState) PushDifficulty(d Difficulty) {
	s.DifficultyHistory = append(s.DifficultyHistory, d)
}
