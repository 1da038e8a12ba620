package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/smart-sdlc/pkg/logger"
)

const (
	DefaultURL     = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel   = "llama-3.1-8b-instant"
	DefaultTimeout = 20 * time.Second

	maxErrorBody = 2048
)

// Completer sends a single prompt and returns the generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Config configures the chat-completions client.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.Named("llm"),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts prompt as a single user message. Every failure to get a
// usable reply is returned as a *TransportError.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := logger.FromContext(ctx, c.logger).With(
		logger.String("llmRequestId", rid),
		logger.String("model", c.cfg.Model),
	)

	body, err := json.Marshal(chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("Completion request failed",
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)),
		)
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("Completion endpoint returned error status",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)),
			logger.Duration("elapsed", time.Since(start)),
		)
		return "", &TransportError{StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(snippet)))}
	}

	var cc chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		log.Warn("Failed to decode completion response", logger.Error(err))
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(cc.Choices) == 0 {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: errors.New("no choices in response")}
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	log.Info("Completion received",
		logger.Int("promptChars", len(prompt)),
		logger.Int("responseChars", len(content)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return content, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
