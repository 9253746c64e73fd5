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
	"sync"
	"time"
)

// OllamaConfig configures the local gateway.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// FormatJSON enables the generate API's format="json" constraint.
	// The capability is per client instance: the first failed attempt
	// with the constraint disables it for the rest of the client's life.
	FormatJSON bool
}

// OllamaClient calls a local Ollama generate endpoint.
type OllamaClient struct {
	cfg        OllamaConfig
	httpClient *http.Client
	log        *slog.Logger

	mu                  sync.Mutex
	formatJSONSupported bool
}

func NewOllamaClient(cfg OllamaConfig, log *slog.Logger) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &OllamaClient{
		cfg:                 cfg,
		httpClient:          &http.Client{Timeout: cfg.Timeout},
		log:                 log,
		formatJSONSupported: cfg.FormatJSON,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate sends one prompt. When the request wants JSON and the format
// constraint is still believed supported, it is tried once; on failure
// the constraint is disabled for this client and the call retried plain.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.WantJSON && c.formatSupported() {
		text, err := c.post(ctx, req, true)
		if err == nil {
			return text, nil
		}
		c.disableFormat()
		c.log.Warn("ollama format=json failed, disabling for this client", "error", err)
	}
	return c.post(ctx, req, false)
}

func (c *OllamaClient) post(ctx context.Context, req Request, withFormat bool) (string, error) {
	body := ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	}
	if withFormat {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	text := strings.TrimSpace(apiResp.Response)
	if text == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return text, nil
}

func (c *OllamaClient) formatSupported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formatJSONSupported
}

func (c *OllamaClient) disableFormat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formatJSONSupported = false
}

// Close releases idle connections.
func (c *OllamaClient) Close() {
	c.httpClient.CloseIdleConnections()
}
