package provider

import (
	"context"
	"fmt"

	"github.com/sohanAi024/News-Multi-Agent/config"
	openai_provider "github.com/sohanAi024/News-Multi-Agent/provider/openai"
)

// CompleteOptions overrides the provider defaults for a single call.
// Zero values keep the configured defaults.
type CompleteOptions struct {
	Temperature *float64
	MaxTokens   int
	Stop        []string
}

// Completer is the single-shot generative call used by every handler.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)
}

// Embedder maps texts to fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Set bundles the routed provider clients.
type Set struct {
	Synthesis Completer
	Relevance Completer
	Category  Completer
	Embedding Embedder
}

// Float is a small helper for CompleteOptions.Temperature.
func Float(v float64) *float64 { return &v }

// NewSet builds one client per routing entry. Entries that share a provider share a client.
func NewSet(cfg *config.Config) (Set, error) {
	clients := map[string]*openai_provider.Client{}
	get := func(name string) (*openai_provider.Client, error) {
		if c, ok := clients[name]; ok {
			return c, nil
		}
		p, err := cfg.Provider(name)
		if err != nil {
			return nil, err
		}
		c, err := openai_provider.NewClient(openai_provider.Options{
			BaseURL:        p.BaseURL,
			APIKey:         p.APIKey,
			Model:          p.Model,
			EmbeddingModel: p.EmbeddingModel,
			Temperature:    p.Temperature,
			MaxTokens:      p.MaxTokens,
			MaxRetries:     p.MaxRetries,
			Timeout:        p.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		clients[name] = c
		return c, nil
	}

	var (
		set Set
		err error
		c   *openai_provider.Client
	)
	if c, err = get(cfg.LLM.Routing.Synthesis); err != nil {
		return Set{}, err
	}
	set.Synthesis = adapter{c}
	if c, err = get(cfg.LLM.Routing.Relevance); err != nil {
		return Set{}, err
	}
	set.Relevance = adapter{c}
	if c, err = get(cfg.LLM.Routing.Category); err != nil {
		return Set{}, err
	}
	set.Category = adapter{c}
	if c, err = get(cfg.LLM.Routing.Embedding); err != nil {
		return Set{}, err
	}
	set.Embedding = c
	return set, nil
}

// adapter converts CompleteOptions to the client's own request options.
type adapter struct{ c *openai_provider.Client }

func (a adapter) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	return a.c.Complete(ctx, prompt, openai_provider.CallOptions{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stop:        opts.Stop,
	})
}
