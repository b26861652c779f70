package domain

// NextAction is the decision the engine makes after grading an answer.
// It is a closed set of variants; each carries only the fields relevant to
// its case.
type NextAction interface {
	isNextAction()
}

// ContinueTopic keeps testing the current topic at an adjusted difficulty.
type ContinueTopic struct {
	NodeID     string
	Difficulty Difficulty
}

// AdvanceTopic closes the current topic and moves to the next one in the
// same domain.
type AdvanceTopic struct {
	TopicID    string
	NodeID     string
	Difficulty Difficulty
}

// AdvanceDomain closes the current topic and domain and moves to the next
// domain in the traversal plan.
type AdvanceDomain struct {
	DomainID   string
	TopicID    string
	NodeID     string
	Difficulty Difficulty
}

// Completed ends the test; no further questions will be asked.
type Completed struct{}

func (ContinueTopic) isNextAction() {}
func (AdvanceTopic) isNextAction()  {}
func (AdvanceDomain) isNextAction() {}
func (Completed) isNextAction()     {}
