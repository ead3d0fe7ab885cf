package openai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mercator-hq/guardian/pkg/providers"
)

// Provider talks to any OpenAI-compatible chat completions endpoint.
type Provider struct {
	*providers.HTTPProvider
	endpoint string
	apiKey   string
}

// NewProvider validates config and builds a provider.
func NewProvider(config providers.Config) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.BaseURL == "" {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "base_url", Message: "must not be empty"}
	}
	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "base_url", Message: "must be an http(s) URL"}
	}
	if config.MaxRetries < 0 {
		return nil, &providers.ConfigError{Provider: config.Name, Field: "max_retries", Message: "must not be negative"}
	}
	return &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
		endpoint:     strings.TrimRight(config.BaseURL, "/") + "/chat/completions",
		apiKey:       config.APIKey,
	}, nil
}

// SendCompletion posts a chat completion and returns the first choice.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	headers := map[string]string{"Content-Type": "application/json"}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	start := time.Now()
	var wire chatResponse
	if err := p.DoJSONRequest(ctx, http.MethodPost, p.endpoint, transformRequest(req), &wire, headers); err != nil {
		return nil, err
	}

	resp, err := transformResponse(&wire)
	if err != nil {
		return nil, &providers.ParseError{Provider: p.Name(), Cause: err}
	}
	resp.Latency = time.Since(start)
	return resp, nil
}

var _ providers.Provider = (*Provider)(nil)
