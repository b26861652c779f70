package question

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/felixgeelhaar/caliper/internal/domain"
	"github.com/felixgeelhaar/caliper/internal/llm"
)

type mockBank struct {
	questions []domain.Question
	err       error
	saveErr   error
	calls     int
	saved     []domain.Question
}

func (m *mockBank) ListBankQuestions(ctx context.Context, nodeID string, difficulty domain.Difficulty) ([]domain.Question, error) {
	m.calls++
	return m.questions, m.err
}

func (m *mockBank) SaveBankQuestion(ctx context.Context, q *domain.Question, position int) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *q)
	return nil
}

type mockProvider struct {
	content string
	err     error
	calls   int
	lastReq *llm.Request
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

func newTestService(bank BankStore, provider llm.Provider) *Service {
	registry := llm.NewRegistry()
	if provider != nil {
		registry.Register("mock", provider)
	}
	return NewService(bank, registry, slog.Default())
}

func testNode() domain.Node {
	return domain.Node{ID: "node-1", SubjectID: "subj-1", Title: "Fractions"}
}

func TestService_NextPrefersBank(t *testing.T) {
	bank := &mockBank{questions: []domain.Question{
		{ID: "q1", NodeID: "node-1", Text: "What is 1/2 + 1/4?", Options: []string{"3/4", "2/6"}, CorrectIndex: 0},
	}}
	provider := &mockProvider{}
	svc := newTestService(bank, provider)

	q, err := svc.Next(context.Background(), testNode(), domain.DifficultyIntermediate, nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Text != "What is 1/2 + 1/4?" {
		t.Errorf("got question %q, want bank question", q.Text)
	}
	if q.Difficulty != domain.DifficultyIntermediate {
		t.Errorf("difficulty = %s, want intermediate", q.Difficulty)
	}
	if provider.calls != 0 {
		t.Error("generator should not run on a bank hit")
	}
}

func TestService_NextSkipsUsedBankQuestions(t *testing.T) {
	bank := &mockBank{questions: []domain.Question{
		{Text: "used one", Options: []string{"a", "b"}},
		{Text: "fresh one", Options: []string{"a", "b"}, CorrectIndex: 1},
	}}
	svc := newTestService(bank, &mockProvider{})

	exclude := map[string]struct{}{"used one": {}}
	q, err := svc.Next(context.Background(), testNode(), domain.DifficultyBeginner, exclude)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Text != "fresh one" {
		t.Errorf("got %q, want the unused bank question", q.Text)
	}
}

func TestService_NextFallsBackToGenerator(t *testing.T) {
	provider := &mockProvider{
		content: `{"question": "Generated?", "options": ["a", "b", "c", "d"], "correctAnswer": 2, "explanation": "because"}`,
	}
	svc := newTestService(&mockBank{}, provider)

	q, err := svc.Next(context.Background(), testNode(), domain.DifficultyAdvanced, nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Text != "Generated?" || q.CorrectIndex != 2 {
		t.Errorf("unexpected generated question: %+v", q)
	}
	if q.NodeID != "node-1" || q.Difficulty != domain.DifficultyAdvanced {
		t.Errorf("generated question not bound to node/difficulty: %+v", q)
	}
	if provider.lastReq == nil || !provider.lastReq.JSONOnly {
		t.Error("generation request should demand JSON output")
	}
}

func TestService_NextBankErrorStillGenerates(t *testing.T) {
	bank := &mockBank{err: errors.New("store down")}
	provider := &mockProvider{
		content: `{"question": "Generated?", "options": ["a", "b"], "correctAnswer": 0}`,
	}
	svc := newTestService(bank, provider)

	if _, err := svc.Next(context.Background(), testNode(), domain.DifficultyBeginner, nil); err != nil {
		t.Fatalf("Next should fall back past a bank error: %v", err)
	}
}

func TestService_NextBothFail(t *testing.T) {
	provider := &mockProvider{err: errors.New("model offline")}
	svc := newTestService(&mockBank{}, provider)

	_, err := svc.Next(context.Background(), testNode(), domain.DifficultyBeginner, nil)
	if !errors.Is(err, domain.ErrQuestionGeneration) {
		t.Errorf("got %v, want ErrQuestionGeneration", err)
	}
}

func TestService_NextRejectsInvalidGeneration(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "sure! here's a question"},
		{"empty text", `{"question": "", "options": ["a", "b"], "correctAnswer": 0}`},
		{"one option", `{"question": "Q?", "options": ["a"], "correctAnswer": 0}`},
		{"index out of range", `{"question": "Q?", "options": ["a", "b"], "correctAnswer": 5}`},
		{"negative index", `{"question": "Q?", "options": ["a", "b"], "correctAnswer": -1}`},
		{"blank option", `{"question": "Q?", "options": ["a", "  "], "correctAnswer": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockBank{}, &mockProvider{content: tt.content})
			_, err := svc.Next(context.Background(), testNode(), domain.DifficultyIntermediate, nil)
			if !errors.Is(err, domain.ErrQuestionGeneration) {
				t.Errorf("got %v, want ErrQuestionGeneration", err)
			}
		})
	}
}

func TestService_NextRejectsRepeatedGeneration(t *testing.T) {
	provider := &mockProvider{
		content: `{"question": "Seen before", "options": ["a", "b"], "correctAnswer": 0}`,
	}
	svc := newTestService(&mockBank{}, provider)

	exclude := map[string]struct{}{"Seen before": {}}
	_, err := svc.Next(context.Background(), testNode(), domain.DifficultyIntermediate, exclude)
	if !errors.Is(err, domain.ErrQuestionGeneration) {
		t.Errorf("got %v, want ErrQuestionGeneration for a duplicate", err)
	}
}

func TestService_NextSavesGeneratedToBank(t *testing.T) {
	bank := &mockBank{}
	provider := &mockProvider{
		content: `{"question": "Generated?", "options": ["a", "b", "c", "d"], "correctAnswer": 1}`,
	}
	svc := newTestService(bank, provider)

	q, err := svc.Next(context.Background(), testNode(), domain.DifficultyIntermediate, nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(bank.saved) != 1 {
		t.Fatalf("saved %d questions to bank, want 1", len(bank.saved))
	}
	if bank.saved[0].Text != q.Text || bank.saved[0].NodeID != "node-1" {
		t.Errorf("saved question %+v does not match returned one", bank.saved[0])
	}
}

func TestService_NextSurvivesBankSaveFailure(t *testing.T) {
	bank := &mockBank{saveErr: errors.New("disk full")}
	provider := &mockProvider{
		content: `{"question": "Generated?", "options": ["a", "b"], "correctAnswer": 0}`,
	}
	svc := newTestService(bank, provider)

	q, err := svc.Next(context.Background(), testNode(), domain.DifficultyIntermediate, nil)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if q.Text != "Generated?" {
		t.Errorf("got %q, want the generated question despite the failed save", q.Text)
	}
}
