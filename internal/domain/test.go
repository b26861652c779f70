package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tuning knobs for the adaptive traversal. These are deliberately coarse
// heuristics, not an IRT-style ability model.
const (
	// NodesPerTopic is how many representative nodes are sampled per topic.
	NodesPerTopic = 2
	// MaxQuestionsPerTopic is the per-topic question budget.
	MaxQuestionsPerTopic = 4
	// EarlyStopCorrect closes a topic as strong after this many consecutive
	// correct answers at intermediate difficulty.
	EarlyStopCorrect = 2
	// EarlyStopIncorrect closes a topic as weak after this many consecutive
	// incorrect answers at beginner difficulty.
	EarlyStopIncorrect = 2
	// MinQuestions and MaxQuestions bound the estimated test length.
	MinQuestions = 15
	MaxQuestions = 30
	// GeneratedNodeCount is how many nodes to generate for an empty subject.
	GeneratedNodeCount = 12
)

// SkipAnswer is the reserved sentinel a client submits to skip the
// current topic. A skip closes the topic as weak without further questions.
const SkipAnswer = -1

// TestStatus represents the lifecycle state of a placement test.
type TestStatus string

const (
	StatusInProgress TestStatus = "in_progress"
	StatusCompleted  TestStatus = "completed"
	StatusAbandoned  TestStatus = "abandoned"
)

// QuestionResponse records one question asked during a test and, once
// answered, the grading outcome. A response with a nil UserAnswer is the
// current (pending) question; it is always the last element of the history.
type QuestionResponse struct {
	QuestionID    string     `json:"question_id"`
	NodeID        string     `json:"node_id"`
	TopicID       string     `json:"topic_id"`
	DomainID      string     `json:"domain_id"`
	Question      string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correct_answer"`
	Difficulty    Difficulty `json:"difficulty"`
	UserAnswer    *int       `json:"user_answer,omitempty"`
	IsCorrect     bool       `json:"is_correct"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
}

// Answered reports whether this response has been graded.
func (r *QuestionResponse) Answered() bool {
	return r.UserAnswer != nil
}

// PlacementTest is the aggregate root for one adaptive placement attempt.
// It is created by Start, mutated exclusively by Submit (one call = one
// state transition), and becomes immutable once status leaves in_progress.
type PlacementTest struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	SubjectID string     `json:"subject_id"`
	Status    TestStatus `json:"status"`

	// Cursor
	CurrentDomainID   string     `json:"current_domain_id"`
	CurrentTopicID    string     `json:"current_topic_id"`
	CurrentNodeID     string     `json:"current_node_id"`
	CurrentDifficulty Difficulty `json:"current_difficulty"`

	// Traversal plan
	DomainsToTest []string `json:"domains_to_test"`
	TopicsToTest  []string `json:"topics_to_test"`
	NodesToTest   []string `json:"nodes_to_test"`

	// Visited sets; each grows monotonically and never shrinks.
	TestedDomains []string `json:"tested_domains"`
	TestedTopics  []string `json:"tested_topics"`
	TestedNodes   []string `json:"tested_nodes"`

	Responses        []QuestionResponse `json:"responses"`
	TopicAssessments []TopicAssessment  `json:"topic_assessments"`
	Adaptive         AdaptiveState      `json:"adaptive_state"`

	// EstimatedQuestions is computed once at start and used as the soft
	// stopping target.
	EstimatedQuestions int `json:"estimated_questions"`

	// Final fields, populated only at completion.
	Score           int        `json:"score"`
	OverallLevel    Difficulty `json:"overall_level,omitempty"`
	StrongAreas     []string   `json:"strong_areas,omitempty"`
	WeakAreas       []string   `json:"weak_areas,omitempty"`
	RecommendedPath []string   `json:"recommended_path,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Version guards the read-modify-write cycle in stores.
	Version int64 `json:"version"`
}

// NewPlacementTest creates a test in its initial in-progress state.
func NewPlacementTest(userID, subjectID string) *PlacementTest {
	return &PlacementTest{
		ID:                uuid.New().String(),
		UserID:            userID,
		SubjectID:         subjectID,
		Status:            StatusInProgress,
		CurrentDifficulty: DifficultyIntermediate,
		TestedDomains:     []string{},
		TestedTopics:      []string{},
		TestedNodes:       []string{},
		Responses:         []QuestionResponse{},
		TopicAssessments:  []TopicAssessment{},
		Adaptive:          NewAdaptiveState(DifficultyIntermediate),
		StartedAt:         time.Now(),
	}
}

// EstimateQuestions computes the soft stopping target for a test over the
// given number of topics: roughly three questions per topic, clamped to
// [MinQuestions, MaxQuestions].
func EstimateQuestions(topicCount int) int {
	estimate := topicCount * 3
	if estimate < MinQuestions {
		return MinQuestions
	}
	if estimate > MaxQuestions {
		return MaxQuestions
	}
	return estimate
}

// PendingResponse returns the current unanswered question, or nil if there
// is none. Only the last response may ever be pending.
func (t *PlacementTest) PendingResponse() *QuestionResponse {
	if len(t.Responses) == 0 {
		return nil
	}
	last := &t.Responses[len(t.Responses)-1]
	if last.Answered() {
		return nil
	}
	return last
}

// AppendQuestion appends a question as the new pending response. It fails if
// a pending response already exists, preserving the single-pending invariant.
func (t *PlacementTest) AppendQuestion(q Question) error {
	if t.Status != StatusInProgress {
		return ErrTestNotActive
	}
	if t.PendingResponse() != nil {
		return fmt.Errorf("%w: a question is already pending", ErrInvalidInput)
	}
	t.Responses = append(t.Responses, QuestionResponse{
		QuestionID:    fmt.Sprintf("%s-%d", t.ID, len(t.Responses)),
		NodeID:        q.NodeID,
		TopicID:       t.CurrentTopicID,
		DomainID:      t.CurrentDomainID,
		Question:      q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectIndex,
		Difficulty:    q.Difficulty,
	})
	return nil
}

// Grade records an answer on the pending response and updates the adaptive
// state. The response is immutable afterwards. It returns whether the answer
// was a skip and whether it was correct.
func (t *PlacementTest) Grade(answer int, at time.Time) (isSkip, isCorrect bool, err error) {
	if t.Status != StatusInProgress {
		return false, false, ErrTestNotActive
	}
	pending := t.PendingResponse()
	if pending == nil {
		return false, false, ErrNoPendingQuestion
	}

	isSkip = answer == SkipAnswer
	isCorrect = !isSkip && answer == pending.CorrectAnswer

	pending.UserAnswer = &answer
	pending.IsCorrect = isCorrect
	pending.AnsweredAt = &at

	if isSkip {
		t.Adaptive.RecordSkip()
	} else {
		t.Adaptive.RecordAnswer(isCorrect)
	}
	return isSkip, isCorrect, nil
}

// AnsweredCount returns the number of graded responses. The response history
// is authoritative here, not the adaptive counters.
func (t *PlacementTest) AnsweredCount() int {
	n := 0
	for i := range t.Responses {
		if t.Responses[i].Answered() {
			n++
		}
	}
	return n
}

// ReachedQuestionTarget reports whether the global stop condition holds:
// enough questions answered against the estimated target or the hard cap.
// This check precedes all topic-local logic.
func (t *PlacementTest) ReachedQuestionTarget() bool {
	answered := t.AnsweredCount()
	target := t.EstimatedQuestions
	if target == 0 {
		target = MaxQuestions
	}
	return answered >= target || answered >= MaxQuestions
}

// MarkTopicTested adds the topic to the visited set. Idempotent.
func (t *PlacementTest) MarkTopicTested(topicID string) {
	t.TestedTopics = appendUnique(t.TestedTopics, topicID)
}

// MarkDomainTested adds the domain to the visited set. Idempotent.
func (t *PlacementTest) MarkDomainTested(domainID string) {
	t.TestedDomains = appendUnique(t.TestedDomains, domainID)
}

// MarkNodeTested adds the node to the visited set. Idempotent.
func (t *PlacementTest) MarkNodeTested(nodeID string) {
	t.TestedNodes = appendUnique(t.TestedNodes, nodeID)
}

// NextUntestedTopic returns the first topic in the traversal plan that has
// not been tested yet, in original plan order.
func (t *PlacementTest) NextUntestedTopic() (string, bool) {
	for _, id := range t.TopicsToTest {
		if !contains(t.TestedTopics, id) {
			return id, true
		}
	}
	return "", false
}

// NextUntestedDomain returns the first untested, non-current domain in the
// traversal plan.
func (t *PlacementTest) NextUntestedDomain() (string, bool) {
	for _, id := range t.DomainsToTest {
		if id != t.CurrentDomainID && !contains(t.TestedDomains, id) {
			return id, true
		}
	}
	return "", false
}

// AdvanceNode moves the cursor to the first sampled-but-untested node of the
// current topic, marking it tested. When every sampled node has been visited
// the cursor stays on the current node, which is re-asked at the new
// difficulty.
func (t *PlacementTest) AdvanceNode() string {
	for _, id := range t.NodesToTest {
		if !contains(t.TestedNodes, id) {
			t.CurrentNodeID = id
			t.MarkNodeTested(id)
			return id
		}
	}
	return t.CurrentNodeID
}

// ResponsesForTopic returns the graded history filtered by topic.
func (t *PlacementTest) ResponsesForTopic(topicID string) []QuestionResponse {
	var out []QuestionResponse
	for _, r := range t.Responses {
		if r.TopicID == topicID {
			out = append(out, r)
		}
	}
	return out
}

// UsedQuestionTexts returns the set of question texts already asked in this
// test. It is recomputed from the response history on every call; no cache
// is kept, so correctness only depends on the history being committed.
func (t *PlacementTest) UsedQuestionTexts() map[string]struct{} {
	used := make(map[string]struct{}, len(t.Responses))
	for i := range t.Responses {
		used[t.Responses[i].Question] = struct{}{}
	}
	return used
}

// Abandon marks the test as abandoned. Abandoning is the only cancellation
// primitive; the record itself is never deleted.
func (t *PlacementTest) Abandon() {
	t.Status = StatusAbandoned
}

func appendUnique(ids []string, id string) []string {
	if id == "" || contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
