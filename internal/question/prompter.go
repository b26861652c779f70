package question

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// Prompter builds prompts for question generation and parses the replies
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// SystemPrompt returns the system prompt for question generation
func (p *Prompter) SystemPrompt() string {
	return `You are an assessment author writing multiple-choice placement questions.
Each question must have exactly one correct option and test understanding, not trivia.
Respond with a single JSON object and nothing else.`
}

// BuildQuestionPrompt constructs the user prompt for one question
func (p *Prompter) BuildQuestionPrompt(node domain.Node, difficulty domain.Difficulty, excludeTexts map[string]struct{}) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Write one %s-level multiple-choice question about: %s\n\n", difficulty, node.Title))
	sb.WriteString("Requirements:\n")
	sb.WriteString("- Exactly 4 answer options\n")
	sb.WriteString("- Exactly one correct option\n")
	sb.WriteString("- Plausible distractors at the same level\n")

	if len(excludeTexts) > 0 {
		sb.WriteString("\nDo NOT repeat any of these questions:\n")
		for text := range excludeTexts {
			sb.WriteString(fmt.Sprintf("- %s\n", p.truncate(text, 120)))
		}
	}

	sb.WriteString("\nRespond with JSON in this exact shape:\n")
	sb.WriteString(`{"question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": 0, "explanation": "..."}`)

	return sb.String()
}

// generatedQuestion mirrors the JSON shape the model is asked to produce
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// ParseQuestion parses and validates a generated question reply
func (p *Prompter) ParseQuestion(content string, node domain.Node, difficulty domain.Difficulty) (*domain.Question, error) {
	raw := stripCodeFence(content)

	var gen generatedQuestion
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		return nil, fmt.Errorf("parse generated question: %w", err)
	}

	gen.Question = strings.TrimSpace(gen.Question)
	if gen.Question == "" {
		return nil, fmt.Errorf("generated question has empty text")
	}
	if len(gen.Options) < 2 {
		return nil, fmt.Errorf("generated question has %d options, need at least 2", len(gen.Options))
	}
	for i, opt := range gen.Options {
		if strings.TrimSpace(opt) == "" {
			return nil, fmt.Errorf("generated question has empty option %d", i)
		}
	}
	if gen.CorrectAnswer < 0 || gen.CorrectAnswer >= len(gen.Options) {
		return nil, fmt.Errorf("generated question has correct index %d out of range", gen.CorrectAnswer)
	}

	return &domain.Question{
		NodeID:       node.ID,
		Text:         gen.Question,
		Options:      gen.Options,
		CorrectIndex: gen.CorrectAnswer,
		Difficulty:   difficulty,
		Explanation:  strings.TrimSpace(gen.Explanation),
	}, nil
}

func (p *Prompter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON in one despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
