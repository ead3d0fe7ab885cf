package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, retry logic and timeout handling.
//
// Concrete adapters embed it and implement SendCompletion.
type HTTPProvider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// NewHTTPProvider creates a base HTTP provider with connection pooling.
func NewHTTPProvider(config Config) *HTTPProvider {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 500 * time.Millisecond
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{Transport: transport, Timeout: config.Timeout},
		logger: slog.Default().With("component", "providers", "provider", config.Name),
	}
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Config returns a copy of the provider configuration.
func (p *HTTPProvider) Config() Config {
	return p.config
}

// DoRequest performs an HTTP request. Network errors, 5xx and 429 responses
// are retried up to MaxRetries times with exponential backoff; everything
// else is returned immediately as a typed error. A 429 waits at least its
// Retry-After, and is returned without retrying when that wait would outlast
// the context deadline.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	base := retry.WithMaxRetries(uint64(p.config.MaxRetries), retry.NewExponential(p.config.RetryBackoff))
	var retryAfter time.Duration
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		if retryAfter > next {
			next = retryAfter
		}
		retryAfter = 0
		return next, false
	})

	var resp *http.Response
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.logger.Debug("retrying request", "attempt", attempt, "max_retries", p.config.MaxRetries)
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		r, err := p.client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return p.contextError(ctxErr)
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
			}
			p.logger.Warn("request failed", "attempt", attempt, "error", err)
			return retry.RetryableError(&ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err})
		}

		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
		r.Body.Close()

		switch {
		case r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden:
			return &AuthError{Provider: p.config.Name, Message: string(errorBody)}
		case r.StatusCode == http.StatusTooManyRequests:
			rl := &RateLimitError{
				Provider:   p.config.Name,
				RetryAfter: parseRetryAfter(r.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}
			if deadline, ok := ctx.Deadline(); ok && rl.RetryAfter > time.Until(deadline) {
				return rl
			}
			p.logger.Warn("request rate limited", "retry_after", rl.RetryAfter, "attempt", attempt)
			retryAfter = rl.RetryAfter
			return retry.RetryableError(rl)
		case r.StatusCode >= 500:
			p.logger.Warn("request returned error status", "status", r.StatusCode, "attempt", attempt)
			return retry.RetryableError(&ProviderError{
				Provider:   p.config.Name,
				StatusCode: r.StatusCode,
				Message:    string(errorBody),
			})
		default:
			return &ProviderError{Provider: p.config.Name, StatusCode: r.StatusCode, Message: string(errorBody)}
		}
	})
	if err != nil {
		// retry.Do returns a bare ctx.Err() when the deadline hits between attempts.
		var timeout *TimeoutError
		if !errors.As(err, &timeout) {
			return nil, p.contextError(err)
		}
		return nil, err
	}
	return resp, nil
}

// contextError converts a context error into the provider's error vocabulary.
// Caller cancellation stays context.Canceled so the transport layer can tell
// it apart from an upstream timeout.
func (p *HTTPProvider) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout, Cause: err}
	}
	return err
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{Provider: p.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}
	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    p.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}
	return nil
}

// Close closes idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
