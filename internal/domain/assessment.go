package domain

import "math"

// TopicAssessment is the finalized verdict for one topic, recorded exactly
// once at the moment the engine decides to leave it.
type TopicAssessment struct {
	TopicID        string     `json:"topic_id"`
	TopicName      string     `json:"topic_name"`
	DomainID       string     `json:"domain_id"`
	DomainName     string     `json:"domain_name"`
	NodesTested    []string   `json:"nodes_tested"`
	NodesCorrect   []string   `json:"nodes_correct"`
	NodesIncorrect []string   `json:"nodes_incorrect"`
	Level          Difficulty `json:"level"`
	Score          int        `json:"score"`
}

// LevelForAccuracy maps a per-topic accuracy onto the level scale:
// >=80% advanced, >=50% intermediate, otherwise beginner. A topic with no
// answers grades as beginner.
func LevelForAccuracy(correct, answered int) Difficulty {
	if answered == 0 {
		return DifficultyBeginner
	}
	pct := float64(correct) / float64(answered) * 100
	switch {
	case pct >= 80:
		return DifficultyAdvanced
	case pct >= 50:
		return DifficultyIntermediate
	default:
		return DifficultyBeginner
	}
}

// BuildTopicAssessment derives the assessment for the current topic from the
// adaptive counters and the response history. The display names are filled
// in by the caller, which has access to the content hierarchy.
func (t *PlacementTest) BuildTopicAssessment(level Difficulty) TopicAssessment {
	score := 0
	if t.Adaptive.CurrentTopicAnswered > 0 {
		score = int(math.Round(float64(t.Adaptive.CurrentTopicCorrect) / float64(t.Adaptive.CurrentTopicAnswered) * 100))
	}

	a := TopicAssessment{
		TopicID:        t.CurrentTopicID,
		DomainID:       t.CurrentDomainID,
		NodesTested:    []string{},
		NodesCorrect:   []string{},
		NodesIncorrect: []string{},
		Level:          level,
		Score:          score,
	}
	for _, r := range t.ResponsesForTopic(t.CurrentTopicID) {
		a.NodesTested = append(a.NodesTested, r.NodeID)
		if r.IsCorrect {
			a.NodesCorrect = append(a.NodesCorrect, r.NodeID)
		} else {
			a.NodesIncorrect = append(a.NodesIncorrect, r.NodeID)
		}
	}
	return a
}
