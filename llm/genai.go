package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const titlePrompt = "Generate a concise (max 6 words) conversation title. " +
	"Return ONLY the title text without punctuation or quotation marks."

// GenAIConfig configures the Gemini-backed completer.
type GenAIConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// GenAICompleter implements Completer with Google's Gemini API.
type GenAICompleter struct {
	client       *genai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewGenAICompleter creates a Gemini client for the given model.
func NewGenAICompleter(ctx context.Context, cfg GenAIConfig, logger *zap.Logger) (*GenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	logger.Info("GenAI completer ready", zap.String("model", cfg.Model))
	return &GenAICompleter{
		client:       client,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
		logger:       logger,
	}, nil
}

func toContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

func (c *GenAICompleter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *GenAICompleter) Complete(ctx context.Context, systemPrompt, contextBlock string, history []Message) (string, error) {
	if systemPrompt == "" {
		systemPrompt = c.systemPrompt
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debug("Dispatching completion",
		zap.Int("messages", len(history)),
		zap.Int("context_chars", len(contextBlock)),
		zap.String("model", c.model))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(history), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(systemPrompt, contextBlock), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
		MaxOutputTokens:   1024,
	})
	if err != nil {
		c.logger.Error("Completion request failed", zap.Error(err))
		return "", fmt.Errorf("GenAI completion failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return EmptyReply, nil
	}
	return text, nil
}

func (c *GenAICompleter) Title(ctx context.Context, firstUserMessage string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(firstUserMessage, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(titlePrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0.5),
			MaxOutputTokens:   20,
		})
	if err != nil {
		return "", fmt.Errorf("GenAI title generation failed: %w", err)
	}
	return resp.Text(), nil
}

var _ Completer = (*GenAICompleter)(nil)
