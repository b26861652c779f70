package placement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// notifyTimeout bounds the fire-and-forget completion calls.
const notifyTimeout = 10 * time.Second

// Service is the test orchestrator. It owns the placement state machine:
// starting tests, grading answers, driving difficulty and traversal
// decisions, and compiling the final result.
type Service struct {
	store     TestStore
	content   ContentGateway
	questions QuestionSource
	profile   ProfileRecorder
	notifier  Notifier
	compiler  *domain.ResultCompiler
	locks     *keyedMutex
	logger    *slog.Logger
}

// NewService creates a new placement service. profile and notifier may be
// nil; completion then simply skips the corresponding notification.
func NewService(store TestStore, content ContentGateway, questions QuestionSource, profile ProfileRecorder, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		content:   content,
		questions: questions,
		profile:   profile,
		notifier:  notifier,
		compiler:  domain.NewResultCompiler(),
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// Start begins a placement test for a user and subject. Any in-progress
// test for the same pair is abandoned first; a user has at most one active
// test per subject.
func (s *Service) Start(ctx context.Context, userID, subjectID string) (*StartResult, error) {
	if userID == "" || subjectID == "" {
		return nil, fmt.Errorf("%w: user id and subject id are required", domain.ErrInvalidInput)
	}

	if prev, err := s.store.FindActiveTest(ctx, userID, subjectID); err == nil {
		prev.Abandon()
		if err := s.store.UpdateTest(ctx, prev); err != nil {
			return nil, fmt.Errorf("abandon previous test: %w", err)
		}
		s.logger.Info("abandoned previous test",
			"test_id", prev.ID,
			"user_id", userID,
			"subject_id", subjectID)
	} else if !errors.Is(err, domain.ErrTestNotFound) {
		return nil, fmt.Errorf("find active test: %w", err)
	}

	subject, err := s.content.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	domains, err := s.content.ListDomains(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: subject %s", domain.ErrNoDomains, subjectID)
	}

	first := domains[0]
	nodes, err := s.content.ResolveNodes(ctx, subjectID, first.ID, nil)
	if err != nil {
		return nil, err
	}
	sampled := domain.SampleNodes(nodes, domain.NodesPerTopic)
	if len(sampled) == 0 {
		return nil, fmt.Errorf("%w: subject %s has no testable nodes", domain.ErrContentUnavailable, subjectID)
	}

	t := domain.NewPlacementTest(userID, subjectID)
	t.CurrentDomainID = first.ID
	t.CurrentTopicID = sampled[0].ID
	t.CurrentNodeID = sampled[0].ID
	t.DomainsToTest = domainIDs(domains)
	t.TopicsToTest = nodeIDs(nodes)
	t.NodesToTest = nodeIDs(sampled)
	t.EstimatedQuestions = domain.EstimateQuestions(len(nodes))

	q, err := s.questions.Next(ctx, sampled[0], domain.DifficultyIntermediate, t.UsedQuestionTexts())
	if err != nil {
		return nil, err
	}
	if err := t.AppendQuestion(*q); err != nil {
		return nil, err
	}

	if err := s.store.CreateTest(ctx, t); err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}

	s.logger.Info("placement test started",
		"test_id", t.ID,
		"user_id", userID,
		"subject_id", subjectID,
		"estimated_questions", t.EstimatedQuestions)

	return &StartResult{
		TestID:             t.ID,
		SubjectName:        subject.Name,
		CurrentDomain:      first.Name,
		CurrentTopic:       sampled[0].Title,
		CurrentQuestion:    questionPayload(t.PendingResponse()),
		CurrentDifficulty:  t.CurrentDifficulty,
		Progress:           Progress{Current: 1, Total: t.EstimatedQuestions},
		EstimatedQuestions: t.EstimatedQuestions,
	}, nil
}

// Submit grades the pending question and advances the test. The answer -1
// skips the current topic, closing it as weak. A graded answer is always
// acknowledged even when the next question cannot be produced; in that case
// QuestionPending is set instead of NextQuestion and the next Submit retries
// generation for the persisted cursor.
func (s *Service) Submit(ctx context.Context, testID, userID string, answer int) (*SubmitResult, error) {
	unlock := s.locks.lock(testID)
	defer unlock()

	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTestNotFound
	}

	isSkip, isCorrect, err := t.Grade(answer, time.Now())
	if err != nil {
		// No pending question means an earlier generation failed after
		// the grade was persisted. The submitted answer has nothing to
		// grade against; retry generation for the cursor instead.
		if errors.Is(err, domain.ErrNoPendingQuestion) {
			return s.recoverPendingQuestion(ctx, t)
		}
		return nil, err
	}

	var action domain.NextAction
	if isSkip {
		// A skip is a declaration of weakness; the topic is closed as
		// beginner without further questions.
		action, err = s.leaveTopic(ctx, t, domain.DifficultyBeginner)
	} else {
		action, err = s.decideNext(ctx, t, isCorrect)
	}
	if err != nil {
		// Traversal decisions only fail on content store errors. Nothing
		// was persisted, so the submission can simply be retried.
		return nil, err
	}

	res := &SubmitResult{
		TestID:    t.ID,
		IsCorrect: isCorrect,
		IsSkipped: isSkip,
	}

	if _, done := action.(domain.Completed); done {
		if err := s.complete(ctx, t); err != nil {
			return nil, err
		}
		res.Completed = true
		res.Progress = Progress{Current: t.AnsweredCount(), Total: t.AnsweredCount()}
		res.Result = &ResultSummary{
			Score:           t.Score,
			Level:           t.OverallLevel,
			StrongAreas:     t.StrongAreas,
			WeakAreas:       t.WeakAreas,
			RecommendedPath: t.RecommendedPath,
		}
		return res, nil
	}

	res.Progress = Progress{Current: t.AnsweredCount(), Total: t.EstimatedQuestions}
	res.CurrentDifficulty = t.CurrentDifficulty

	node, err := s.content.GetNode(ctx, t.CurrentNodeID)
	if err != nil {
		return nil, fmt.Errorf("resolve next node: %w", err)
	}

	q, qErr := s.questions.Next(ctx, *node, t.CurrentDifficulty, t.UsedQuestionTexts())
	if qErr == nil {
		if err := t.AppendQuestion(*q); err != nil {
			return nil, err
		}
	} else {
		// The graded answer and the traversal decision survive a failed
		// generation; the client polls again for the question.
		s.logger.Warn("next question unavailable",
			"test_id", t.ID,
			"node_id", t.CurrentNodeID,
			"error", qErr)
	}

	if err := s.store.UpdateTest(ctx, t); err != nil {
		return nil, fmt.Errorf("update test: %w", err)
	}

	if qErr != nil {
		res.QuestionPending = true
	} else {
		res.NextQuestion = questionPayload(t.PendingResponse())
	}

	if dom, err := s.content.GetDomain(ctx, t.CurrentDomainID); err == nil {
		res.CurrentDomain = dom.Name
	}
	if topic, err := s.content.GetNode(ctx, t.CurrentTopicID); err == nil {
		res.CurrentTopic = topic.Title
	}
	return res, nil
}

// recoverPendingQuestion repairs a test left without a pending question by
// a failed generation. The persisted cursor already points at the next node
// and difficulty, so generation is simply retried; another failure surfaces
// as domain.ErrQuestionGeneration and the client retries again.
func (s *Service) recoverPendingQuestion(ctx context.Context, t *domain.PlacementTest) (*SubmitResult, error) {
	node, err := s.content.GetNode(ctx, t.CurrentNodeID)
	if err != nil {
		return nil, fmt.Errorf("resolve next node: %w", err)
	}

	q, err := s.questions.Next(ctx, *node, t.CurrentDifficulty, t.UsedQuestionTexts())
	if err != nil {
		return nil, err
	}
	if err := t.AppendQuestion(*q); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTest(ctx, t); err != nil {
		return nil, fmt.Errorf("update test: %w", err)
	}

	s.logger.Info("recovered pending question",
		"test_id", t.ID,
		"node_id", t.CurrentNodeID,
		"difficulty", t.CurrentDifficulty)

	res := &SubmitResult{
		TestID:            t.ID,
		NextQuestion:      questionPayload(t.PendingResponse()),
		CurrentDifficulty: t.CurrentDifficulty,
		Progress:          Progress{Current: t.AnsweredCount(), Total: t.EstimatedQuestions},
	}
	if dom, err := s.content.GetDomain(ctx, t.CurrentDomainID); err == nil {
		res.CurrentDomain = dom.Name
	}
	if topic, err := s.content.GetNode(ctx, t.CurrentTopicID); err == nil {
		res.CurrentTopic = topic.Title
	}
	return res, nil
}

// ListTests returns summaries of the user's tests, newest first.
func (s *Service) ListTests(ctx context.Context, userID string) ([]TestSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	tests, err := s.store.ListUserTests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}

	out := make([]TestSummary, 0, len(tests))
	for _, t := range tests {
		out = append(out, TestSummary{
			TestID:      t.ID,
			SubjectID:   t.SubjectID,
			Status:      t.Status,
			Answered:    t.AnsweredCount(),
			Score:       t.Score,
			Level:       t.OverallLevel,
			StartedAt:   t.StartedAt,
			CompletedAt: t.CompletedAt,
		})
	}
	return out, nil
}

// Result returns the full test record in any status.
func (s *Service) Result(ctx context.Context, testID, userID string) (*domain.PlacementTest, error) {
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTestNotFound
	}
	return t, nil
}

// decideNext runs the non-skip decision chain: the global stop check first,
// then the topic-local early stops, then difficulty adjustment within the
// topic.
func (s *Service) decideNext(ctx context.Context, t *domain.PlacementTest, lastCorrect bool) (domain.NextAction, error) {
	if t.ReachedQuestionTarget() {
		// The topic open at the moment of the global stop still gets its
		// verdict, graded on whatever it accumulated.
		s.closeOpenTopic(ctx, t)
		return domain.Completed{}, nil
	}

	if stop, level := domain.EvaluateTopicStop(t.Adaptive, t.CurrentDifficulty); stop {
		return s.leaveTopic(ctx, t, level)
	}

	next := t.CurrentDifficulty
	if lastCorrect {
		next = next.Raise()
	} else {
		next = next.Lower()
	}
	t.CurrentDifficulty = next
	t.Adaptive.PushDifficulty(next)

	nodeID := t.AdvanceNode()
	return domain.ContinueTopic{NodeID: nodeID, Difficulty: next}, nil
}

// leaveTopic closes the current topic with the given level, then moves the
// cursor to the next untested topic, the next untested domain, or declares
// the test complete.
func (s *Service) leaveTopic(ctx context.Context, t *domain.PlacementTest, level domain.Difficulty) (domain.NextAction, error) {
	assessment := t.BuildTopicAssessment(level)
	if topic, err := s.content.GetNode(ctx, assessment.TopicID); err == nil {
		assessment.TopicName = topic.Title
	}
	if dom, err := s.content.GetDomain(ctx, assessment.DomainID); err == nil {
		assessment.DomainName = dom.Name
	}
	t.TopicAssessments = append(t.TopicAssessments, assessment)

	t.MarkTopicTested(t.CurrentTopicID)
	t.Adaptive.ResetTopic()

	if topicID, ok := t.NextUntestedTopic(); ok {
		t.CurrentTopicID = topicID
		t.CurrentNodeID = topicID
		t.NodesToTest = []string{topicID}
		s.resetDifficulty(t)
		return domain.AdvanceTopic{
			TopicID:    topicID,
			NodeID:     topicID,
			Difficulty: t.CurrentDifficulty,
		}, nil
	}

	domainID, ok := t.NextUntestedDomain()
	if !ok {
		return domain.Completed{}, nil
	}

	t.MarkDomainTested(t.CurrentDomainID)
	t.CurrentDomainID = domainID

	nodes, err := s.content.TestableNodes(ctx, t.SubjectID, domainID, t.TestedNodes)
	if err != nil {
		return nil, fmt.Errorf("resolve nodes for domain %s: %w", domainID, err)
	}
	if len(nodes) == 0 {
		return domain.Completed{}, nil
	}

	sampled := domain.SampleNodes(nodes, domain.NodesPerTopic)
	t.TopicsToTest = nodeIDs(nodes)
	t.NodesToTest = nodeIDs(sampled)
	t.CurrentTopicID = sampled[0].ID
	t.CurrentNodeID = sampled[0].ID
	s.resetDifficulty(t)

	return domain.AdvanceDomain{
		DomainID:   domainID,
		TopicID:    t.CurrentTopicID,
		NodeID:     t.CurrentNodeID,
		Difficulty: t.CurrentDifficulty,
	}, nil
}

// closeOpenTopic records an assessment for the current topic if it has not
// been closed yet, using its accumulated accuracy as the level.
func (s *Service) closeOpenTopic(ctx context.Context, t *domain.PlacementTest) {
	if t.CurrentTopicID == "" {
		return
	}
	for _, id := range t.TestedTopics {
		if id == t.CurrentTopicID {
			return
		}
	}

	level := domain.LevelForAccuracy(t.Adaptive.CurrentTopicCorrect, t.Adaptive.CurrentTopicAnswered)
	assessment := t.BuildTopicAssessment(level)
	if topic, err := s.content.GetNode(ctx, assessment.TopicID); err == nil {
		assessment.TopicName = topic.Title
	}
	if dom, err := s.content.GetDomain(ctx, assessment.DomainID); err == nil {
		assessment.DomainName = dom.Name
	}
	t.TopicAssessments = append(t.TopicAssessments, assessment)
	t.MarkTopicTested(t.CurrentTopicID)
	t.Adaptive.ResetTopic()
}

// resetDifficulty returns the cursor to intermediate for a fresh topic.
func (s *Service) resetDifficulty(t *domain.PlacementTest) {
	t.CurrentDifficulty = domain.DifficultyIntermediate
	t.Adaptive.PushDifficulty(domain.DifficultyIntermediate)
}

// complete compiles the final result, persists it, and kicks off the
// fire-and-forget completion notifications.
func (s *Service) complete(ctx context.Context, t *domain.PlacementTest) error {
	s.compiler.Compile(t, time.Now())

	if err := s.store.UpdateTest(ctx, t); err != nil {
		return fmt.Errorf("persist completed test: %w", err)
	}

	s.logger.Info("placement test completed",
		"test_id", t.ID,
		"user_id", t.UserID,
		"score", t.Score,
		"level", t.OverallLevel,
		"answered", t.AnsweredCount())

	snapshot := *t
	go s.notifyCompleted(&snapshot)
	return nil
}

// notifyCompleted runs the completion collaborators. Failures are logged
// and swallowed; they never roll back the persisted completed status.
func (s *Service) notifyCompleted(t *domain.PlacementTest) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if s.profile != nil {
		if err := s.profile.RecordPlacement(ctx, t.UserID, t.SubjectID, t.Score, t.OverallLevel); err != nil {
			s.logger.Error("failed to record placement on profile",
				"test_id", t.ID,
				"user_id", t.UserID,
				"error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.PlacementCompleted(ctx, t); err != nil {
			s.logger.Error("failed to publish completion event",
				"test_id", t.ID,
				"error", err)
		}
	}
}

func domainIDs(domains []domain.ContentDomain) []string {
	ids := make([]string, 0, len(domains))
	for _, d := range domains {
		ids = append(ids, d.ID)
	}
	return ids
}

func nodeIDs(nodes []domain.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
