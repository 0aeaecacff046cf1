// Package plaza is the HTTP gateway to the remote gamified-economy API.
// Every response is decoded here, once, into a domain.Outcome; callers
// never re-inspect raw payloads.
package plaza

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxBodyBytes     = 1 << 20
)

type Config struct {
	BaseURL   string
	APIKey    string
	ProxyURL  string
	Timeout   time.Duration
	UserAgent string
}

// Client is bound to one account credential and, optionally, one forward
// proxy. It performs no retries; backoff policy belongs to the worker.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

var _ ports.Gateway = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("base url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

type inscribeRequest struct {
	TokenID         int    `json:"token_id"`
	ChallengeID     string `json:"challenge_id,omitempty"`
	ChallengeAnswer string `json:"challenge_answer,omitempty"`
}

func (c *Client) Inscribe(ctx context.Context, tokenID int) (domain.Outcome, error) {
	status, body, err := c.post(ctx, "/inscribe", inscribeRequest{TokenID: tokenID})
	if err != nil {
		return domain.Outcome{}, err
	}

	return decodeInscribe(status, body, tokenID), nil
}

func (c *Client) AnswerChallenge(ctx context.Context, tokenID int, challengeID, answer string) (domain.Outcome, error) {
	status, body, err := c.post(ctx, "/inscribe", inscribeRequest{
		TokenID:         tokenID,
		ChallengeID:     challengeID,
		ChallengeAnswer: answer,
	})
	if err != nil {
		return domain.Outcome{}, err
	}

	return decodeInscribe(status, body, tokenID), nil
}

type balanceResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		TrustScore int   `json:"trust_score"`
		CWBalance  int64 `json:"cw_balance"`
		CWStaked   int64 `json:"cw_staked"`
	} `json:"data"`
}

func (c *Client) Balance(ctx context.Context) (domain.BalanceInfo, error) {
	status, body, err := c.post(ctx, "/cw", map[string]string{"action": "balance"})
	if err != nil {
		return domain.BalanceInfo{}, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.BalanceInfo{}, fmt.Errorf("decode balance response (http %d): %w", status, err)
	}
	if !resp.Success {
		return domain.BalanceInfo{}, fmt.Errorf("balance request rejected (http %d): %s", status, resp.Error)
	}

	return domain.BalanceInfo{
		TrustScore: resp.Data.TrustScore,
		CWBalance:  resp.Data.CWBalance,
		CWStaked:   resp.Data.CWStaked,
	}, nil
}

type socialRequest struct {
	Module     string `json:"module"`
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
}

type socialResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) PostMoment(ctx context.Context, content string) error {
	status, body, err := c.post(ctx, "/social", socialRequest{
		Module:     "moments",
		Content:    content,
		Visibility: "public",
	})
	if err != nil {
		return err
	}

	var resp socialResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode social response (http %d): %w", status, err)
	}
	if !resp.Success {
		return fmt.Errorf("moment rejected (http %d): %s", status, resp.Error)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}

	return resp.StatusCode, data, nil
}
