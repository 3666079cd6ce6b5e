package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region generator

// Request is one draft request to a generative backend.
type Request struct {
	Model   string
	Rules   []string
	History []decision.Message
	Text    string
}

// Generator produces a raw draft, delimiters included.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrEmptyDraft is returned when the backend answers with no text.
var ErrEmptyDraft = errors.New("backend returned empty draft")

// #endregion generator

// #region genai

// GenAI generates drafts with the Gemini API.
type GenAI struct {
	client      *genai.Client
	temperature float32
	logger      *zap.Logger
}

// NewGenAI creates a Gemini-backed generator.
func NewGenAI(ctx context.Context, apiKey string, logger *zap.Logger) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, temperature: 0.4, logger: logger.Named("backend")}, nil
}

// Generate sends the rules as the system instruction and the conversation as contents.
func (g *GenAI) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if len(req.Rules) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(req.Rules, "\n"), genai.RoleUser)
	}

	g.logger.Debug("Generating draft", zap.String("model", req.Model), zap.Int("history", len(req.History)))
	result, err := g.client.Models.GenerateContent(ctx, req.Model, Contents(req), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDraft
	}
	return text, nil
}

// Contents maps the history plus the current turn onto genai roles.
func Contents(req Request) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == decision.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return append(out, genai.NewContentFromText(req.Text, genai.RoleUser))
}

// #endregion genai
