package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthpulse/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemPrompt = "You are HealthPulse, a friendly wellness assistant. Give short, practical, non-diagnostic advice."

// GeminiReplier produces replies with a Gemini chat session seeded from history.
type GeminiReplier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiReplier(ctx context.Context, apiKey, modelName string) (*GeminiReplier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	return &GeminiReplier{client: client, model: model}, nil
}

func (g *GeminiReplier) Reply(ctx context.Context, history []models.ChatMessage, text string) (string, error) {
	session := g.model.StartChat()
	for _, m := range history {
		role := "user"
		if m.Sender == models.SenderAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func (g *GeminiReplier) Close() error {
	return g.client.Close()
}
