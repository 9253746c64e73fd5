package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoteConfig configures the hosted Converse-style gateway.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// RemoteClient calls a hosted Converse-compatible inference endpoint.
type RemoteClient struct {
	cfg        RemoteConfig
	httpClient *http.Client
	log        *slog.Logger
}

func NewRemoteClient(cfg RemoteConfig, log *slog.Logger) *RemoteClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &RemoteClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

type converseMessage struct {
	Role    string            `json:"role"`
	Content []converseContent `json:"content"`
}

type converseContent struct {
	Text string `json:"text"`
}

type converseInference struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type converseRequest struct {
	Model           string            `json:"model"`
	System          []converseContent `json:"system,omitempty"`
	Messages        []converseMessage `json:"messages"`
	InferenceConfig converseInference `json:"inferenceConfig"`
}

type converseResponse struct {
	Output struct {
		Message struct {
			Content []converseContent `json:"content"`
		} `json:"message"`
	} `json:"output"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one user message and returns the concatenated text
// parts of the response.
func (c *RemoteClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 512
	}
	if req.TopP <= 0 {
		req.TopP = 0.9
	}

	body := converseRequest{
		Model:    c.cfg.Model,
		Messages: []converseMessage{{Role: "user", Content: []converseContent{{Text: req.Prompt}}}},
		InferenceConfig: converseInference{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			TopP:        req.TopP,
		},
	}
	if req.System != "" {
		body.System = []converseContent{{Text: req.System}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqID := uuid.New().String()
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/converse", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("remote gateway call failed", "req_id", reqID, "error", err)
		return "", fmt.Errorf("remote gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote gateway status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp converseResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("remote gateway error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var texts []string
	for _, part := range apiResp.Output.Message.Content {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("empty response from remote gateway")
	}

	c.log.Debug("remote gateway response", "req_id", reqID, "elapsed_ms", time.Since(start).Milliseconds())
	return strings.Join(texts, "\n"), nil
}

// Close releases idle connections.
func (c *RemoteClient) Close() {
	c.httpClient.CloseIdleConnections()
}
