package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

// Prompter builds prompts for node generation and parses the replies
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// SystemPrompt returns the system prompt for node generation
func (p *Prompter) SystemPrompt() string {
	return `You are a curriculum designer breaking a subject into concrete learning topics.
Topics must progress from foundational to advanced and be specific enough to write quiz questions about.
Respond with a single JSON object and nothing else.`
}

// BuildNodesPrompt constructs the user prompt for generating topics
func (p *Prompter) BuildNodesPrompt(subject domain.Subject, count int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("List %d learning topics for the subject: %s\n", count, subject.Name))
	if subject.Description != "" {
		sb.WriteString(fmt.Sprintf("Subject description: %s\n", subject.Description))
	}
	sb.WriteString("\nOrder them from foundational to advanced.\n")
	sb.WriteString("Respond with JSON in this exact shape:\n")
	sb.WriteString(`{"topics": [{"title": "...", "difficulty": "beginner|intermediate|advanced"}]}`)

	return sb.String()
}

type generatedTopics struct {
	Topics []struct {
		Title      string `json:"title"`
		Difficulty string `json:"difficulty"`
	} `json:"topics"`
}

// ParseNodes parses and validates a generated topic list
func (p *Prompter) ParseNodes(content string, subjectID string) ([]domain.Node, error) {
	raw := stripCodeFence(content)

	var gen generatedTopics
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		return nil, fmt.Errorf("parse generated topics: %w", err)
	}
	if len(gen.Topics) == 0 {
		return nil, fmt.Errorf("generated topic list is empty")
	}

	nodes := make([]domain.Node, 0, len(gen.Topics))
	for i, t := range gen.Topics {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		difficulty, err := domain.ParseDifficulty(t.Difficulty)
		if err != nil {
			difficulty = domain.DifficultyIntermediate
		}
		nodes = append(nodes, domain.Node{
			SubjectID:  subjectID,
			Title:      title,
			Difficulty: difficulty,
			Position:   i,
		})
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("generated topic list has no usable titles")
	}
	return nodes, nil
}

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
