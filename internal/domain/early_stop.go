package domain

// EvaluateTopicStop decides whether the current topic should be closed
// before its budget runs out, and which level to assign it.
//
// A strong stop only fires at intermediate difficulty and a weak stop only
// at beginner. A topic performing strongly at advanced difficulty therefore
// keeps going until its budget is exhausted; the thresholds are deliberately
// conservative.
func EvaluateTopicStop(state AdaptiveState, current Difficulty) (stop bool, level Difficulty) {
	switch {
	case state.ConsecutiveCorrect >= EarlyStopCorrect && current == DifficultyIntermediate:
		return true, DifficultyAdvanced
	case state.ConsecutiveIncorrect >= EarlyStopIncorrect && current == DifficultyBeginner:
		return true, DifficultyBeginner
	case state.CurrentTopicAnswered >= MaxQuestionsPerTopic:
		return true, LevelForAccuracy(state.CurrentTopicCorrect, state.CurrentTopicAnswered)
	default:
		return false, ""
	}
}
