// Package openrouter adapts an OpenRouter chat-completions endpoint into a
// challenge solver. Generation failures degrade to canned fallback answers;
// the solver never fails outright.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Styles are the per-account writing styles, selected by account index so
// repeated accounts don't produce identical answers.
var Styles = []string{
	"poetic and lyrical",
	"casual and conversational",
	"formal and academic",
	"vivid and descriptive",
	"philosophical and reflective",
	"simple and direct",
	"scientific and precise",
	"whimsical and imaginative",
	"enthusiastic and energetic",
}

func StyleFor(index int) string {
	if index < 0 {
		index = -index
	}

	return Styles[index%len(Styles)]
}

var fallbackAnswers = []string{
	"The digital landscape evolves constantly, bringing new opportunities.",
	"Innovation drives progress in unexpected and exciting directions.",
	"Technology transforms our understanding of what's possible.",
	"Each step forward opens doors to new discoveries.",
	"The journey of exploration reveals hidden potentials.",
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
	SiteURL     string
	SiteName    string
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     "https://openrouter.ai/api/v1",
		Model:       "openai/gpt-4o-mini",
		Timeout:     30 * time.Second,
		RetryDelay:  5 * time.Second,
		MaxTokens:   200,
		Temperature: 0.7,
		SiteURL:     "https://clawplaza.ai",
		SiteName:    "clawfarm",
	}
}

type Client struct {
	cfg          Config
	httpClient   *http.Client
	logger       *zap.Logger
	requestCount atomic.Int64
}

var _ ports.ChallengeSolver = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig("").BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Solve generates an answer for prompt, retrying once after a fixed delay.
// When both attempts fail it returns a random canned fallback sentence.
func (c *Client) Solve(ctx context.Context, prompt, style string) string {
	system, user := buildPrompt(prompt, style)

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fallbackAnswers[rand.IntN(len(fallbackAnswers))]
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		answer, err := c.complete(ctx, system, user)
		if err != nil {
			c.logger.Warn("challenge generation failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		c.requestCount.Add(1)
		return domain.RepairAnswer(prompt, answer)
	}

	return fallbackAnswers[rand.IntN(len(fallbackAnswers))]
}

// RequestCount reports how many generations succeeded.
func (c *Client) RequestCount() int64 {
	return c.requestCount.Load()
}

func buildPrompt(prompt, style string) (system, user string) {
	styleNote := fmt.Sprintf("Write in a %s style. Your answer must be unique and unlike any other response.", style)

	switch domain.ClassifyPrompt(prompt) {
	case domain.PromptParaphrase:
		system = "Rewrite the given sentence using completely different words while keeping the same meaning. " +
			"Do NOT reuse any nouns, verbs, or adjectives from the original. " + styleNote +
			" Output ONLY the rewritten sentence. No quotes, no explanation."
		user = prompt + "\n\nYour unique rewrite (entirely different vocabulary):"

	case domain.PromptWordCount:
		system = "You are solving word-count challenges. " +
			"CRITICAL: count every word in your answer BEFORE outputting it. " + styleNote +
			" Output ONLY the answer. No quotes, no labels."
		user = prompt + "\n\nCount your words carefully. Output only the answer:"

	default:
		system = "You are solving writing challenges. Follow ALL constraints EXACTLY.\n" +
			"- Include ALL required words if mentioned.\n" +
			"- End with '?' if asked for a question.\n" +
			"- Start with the required word if specified.\n" +
			styleNote + "\n" +
			"Output ONLY the answer. No quotes, no labels, no explanation."
		user = prompt + "\n\nYour unique answer:"
	}

	return system, user
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("api key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	req.Header.Set("X-Title", c.cfg.SiteName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
