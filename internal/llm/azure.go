// Package llm is the model-transport boundary: a single synchronous
// chat-completion call against an Azure OpenAI deployment. Retries, rate
// limits and streaming are deliberately not handled here.
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
)

// ErrMalformedResponse marks a reply the transport could reach but not
// interpret (undecodable body, empty choice list).
var ErrMalformedResponse = errors.New("malformed model response")

// Message is one chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Config carries the opaque provider settings, passed through unmodified
// from the configuration boundary.
type Config struct {
	Endpoint   string // e.g. https://myresource.openai.azure.com
	APIKey     string
	APIVersion string
	Model      string // deployment name
	MaxTokens  int    // completion cap per call
}

// AzureClient calls the Azure OpenAI chat completions API.
type AzureClient struct {
	cfg        Config
	httpClient *http.Client

	// Stats tracks call latency for the stats endpoint.
	Stats *Stats
}

func NewAzureClient(cfg Config) *AzureClient {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &AzureClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		Stats: NewStats(time.Hour),
	}
}

func (c *AzureClient) Model() string { return c.cfg.Model }

type chatRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the composed messages and returns the generated text.
func (c *AzureClient) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Messages:  messages,
		MaxTokens: c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model, c.cfg.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.Stats.Record(time.Since(start).Milliseconds())
	if err != nil {
		return "", fmt.Errorf("azure openai: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure openai status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("azure openai error %s: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}

	return apiResp.Choices[0].Message.Content, nil
}

// Close releases resources.
func (c *AzureClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
