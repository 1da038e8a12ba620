package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

const DefaultVertexModel = "gemini-1.5-flash"

// VertexConfig configures the Vertex AI Gemini backend.
type VertexConfig struct {
	Project  string
	Location string
	Model    string
	Timeout  time.Duration
}

// VertexClient is a Completer backed by Vertex AI. It follows the same error
// contract as Client: every failure is a *TransportError.
type VertexClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logger.Logger
}

func NewVertexClient(ctx context.Context, cfg VertexConfig, log logger.Logger) (*VertexClient, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, errors.New("vertex project and location must be set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVertexModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &VertexClient{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  log.Named("vertex"),
	}, nil
}

func (c *VertexClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	model := c.client.GenerativeModel(c.model)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.FromContext(ctx, c.logger).Warn("Vertex generation failed",
			logger.String("model", c.model),
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)),
		)
		return "", &TransportError{Err: err}
	}

	text, ok := responseText(resp)
	if !ok {
		return "", &TransportError{Err: errors.New("no candidates in response")}
	}
	logger.FromContext(ctx, c.logger).Info("Completion received",
		logger.String("model", c.model),
		logger.Int("responseChars", len(text)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(text), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), true
}

func (c *VertexClient) Close() error {
	return c.client.Close()
}
