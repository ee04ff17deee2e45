package llm

import (
	"context"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

// MockLLM is a deterministic stand-in for local development and tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Classify(_ context.Context, message string, _ domain.ConversationContext) (*domain.Decision, error) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "ticket") || strings.Contains(lower, "customer"):
		return &domain.Decision{
			Action:      domain.ActionQuery,
			Confidence:  0.5,
			Instruction: "list tickets",
		}, nil
	default:
		return &domain.Decision{
			Action:      domain.ActionChat,
			Confidence:  0.5,
			Instruction: "I can list, filter and summarize support tickets. What would you like to see?",
		}, nil
	}
}

func (m *MockLLM) Generate(_ context.Context, prompt string, _ domain.ConversationContext) (string, error) {
	if len(prompt) > 60 {
		prompt = prompt[:60] + "…"
	}
	return "(mock) I heard: " + prompt, nil
}
