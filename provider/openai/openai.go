package openai_provider

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

	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/pkg/retry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Options configures a client for any OpenAI-compatible endpoint.
type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// CallOptions overrides defaults for one completion.
type CallOptions struct {
	Temperature *float64
	MaxTokens   int
	Stop        []string
}

// Client talks to /chat/completions and /embeddings
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	embeddingModel string
	temperature    float64
	maxTokens      int
	httpClient     *http.Client
	retrier        *retry.Retrier
}

// Message represents a message in a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// NewClient creates a client. BaseURL defaults to the OpenAI API.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if opts.Model == "" && opts.EmbeddingModel == "" {
		return nil, errors.New("model or embedding_model required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	rc := retry.NewDefaultConfig()
	if opts.MaxRetries >= 0 {
		rc.MaxRetries = opts.MaxRetries
	}
	return &Client{
		baseURL:        base,
		apiKey:         opts.APIKey,
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		temperature:    opts.Temperature,
		maxTokens:      opts.MaxTokens,
		httpClient:     hc,
		retrier:        retry.NewRetrier(rc),
	}, nil
}

// Complete sends a single user prompt and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if c.model == "" {
		return "", errors.New("completion model not configured")
	}
	req := request{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stop:        opts.Stop,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	var out response
	if err := c.post(ctx, "/chat/completions", req, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Embed generates one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.embeddingModel == "" {
		return nil, errors.New("embedding model not configured")
	}
	body := map[string]interface{}{
		"model": c.embeddingModel,
		"input": texts,
	}

	var out embeddingResponse
	if err := c.post(ctx, "/embeddings", body, &out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Data))
	}
	vecs := make([][]float32, len(texts))
	for i, d := range out.Data {
		idx := d.Index
		if idx < 0 || idx >= len(vecs) {
			idx = i
		}
		if len(d.Embedding) == 0 {
			return nil, models.ErrEmptyEmbedding
		}
		vecs[idx] = d.Embedding
	}
	return vecs, nil
}

// post sends body as JSON and decodes the reply into out. 4xx responses other than 429 are not retried.
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	url := c.baseURL + path

	return c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			return fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			log.FromCtx(ctx).Warn().Str("path", path).Int("status", resp.StatusCode).Msg("provider call failed")
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("failed to parse response: %w", err))
		}
		return nil
	})
}
