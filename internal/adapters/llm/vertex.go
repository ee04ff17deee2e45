package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

type VertexClient struct {
	client    *genai.Client
	modelName string
}

// NewVertexClient creates an LLMClient based on Vertex AI (Gemini).
// Uses environment variables for project and region to simplify.
func NewVertexClient(ctx context.Context) (*VertexClient, error) {
	projectID := os.Getenv("DESKMATE_GCP_PROJECT")
	location := os.Getenv("DESKMATE_GCP_LOCATION")
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("DESKMATE_GCP_PROJECT and DESKMATE_GCP_LOCATION must be set")
	}

	modelName := os.Getenv("DESKMATE_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &VertexClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// classifyResponse is the JSON shape the classifier prompt asks for.
type classifyResponse struct {
	Action      string  `json:"action"`
	Confidence  float64 `json:"confidence"`
	Instruction string  `json:"instruction"`
}

// Classify implements domain.LLMClient. Any transport or parse problem is
// returned as an error; the intent router owns the fallback.
func (v *VertexClient) Classify(
	ctx context.Context,
	message string,
	convCtx domain.ConversationContext,
) (*domain.Decision, error) {
	user := BuildClassifyPrompt(message, convCtx)

	temp := float32(0.1)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifySystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   512,
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("vertex classify: %w", err)
	}

	text := stripCodeFence(res.Text())
	if text == "" {
		return nil, fmt.Errorf("vertex classify: empty response")
	}

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("vertex classify: unparseable response: %w", err)
	}

	return &domain.Decision{
		Action:      domain.Action(parsed.Action),
		Confidence:  parsed.Confidence,
		Instruction: parsed.Instruction,
	}, nil
}

// Generate implements domain.LLMClient.
func (v *VertexClient) Generate(
	ctx context.Context,
	prompt string,
	convCtx domain.ConversationContext,
) (string, error) {
	// Recent turns as conversation, then the prompt itself.
	var contents []*genai.Content
	for _, itx := range convCtx.History {
		contents = append(contents, genai.NewContentFromText(itx.Input, genai.RoleUser))
		if itx.Response != "" {
			contents = append(contents, genai.NewContentFromText(itx.Response, genai.RoleModel))
		}
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	temp := float32(0.7)
	topP := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatSystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   2048,
	}

	res, err := v.client.Models.GenerateContent(ctx, v.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("vertex returned empty text")
	}

	return text, nil
}
