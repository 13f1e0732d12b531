// Package llm talks to the Groq chat-completions API.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("groq api key not configured")
	// ErrEmptyCompletion is returned when the model produced no choices.
	ErrEmptyCompletion = errors.New("empty completion")
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateStories asks the model for user stories and returns one story per
// non-empty line of the reply. The call is never retried.
func (c *Client) GenerateStories(ctx context.Context, description string) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	text, err := c.complete(ctx, storyPrompt(description))
	if err != nil {
		return nil, err
	}
	return splitLines(text), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	payload, err := sonic.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var out chatResponse
	decodeErr := sonic.Unmarshal(body, &out)
	if res.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("groq returned status %d: %s", res.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("groq returned status %d", res.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decoding response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("groq completion",
		zap.String("model", out.Model),
		zap.Duration("latency", time.Since(start)))
	return out.Choices[0].Message.Content, nil
}

func storyPrompt(description string) string {
	return "Generate user stories from this project description:\n" +
		description + "\n\n" +
		"Format each story as: As a [role], I want to [action], so that [benefit].\n" +
		"Return only the user stories, one per line."
}

func splitLines(text string) []string {
	stories := []string{}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			stories = append(stories, line)
		}
	}
	return stories
}
