package embedding

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the remote embedding client.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int
	MaxInputChars int
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

// OpenAIEmbedder embeds text through an OpenAI-compatible embeddings API.
// Transient provider failures are retried with bounded exponential backoff;
// oversized input and dimension mismatches fail without retry.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	dimensions    int
	maxInputChars int
	maxRetries    int
	retryDelay    time.Duration
	timeout       time.Duration
}

// NewOpenAIEmbedder creates an embedder from cfg. The API key is required;
// Dimensions must match the store's configured vector width.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", cfg.Dimensions)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         openai.EmbeddingModel(cfg.Model),
		dimensions:    cfg.Dimensions,
		maxInputChars: cfg.MaxInputChars,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    retryDelay,
		timeout:       timeout,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one API call, returning vectors in input order.
// Inputs over the model's documented limit fail fatally: that is a chunk-size
// configuration error upstream, not something a retry can fix.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if e.maxInputChars > 0 && utf8.RuneCountInString(text) > e.maxInputChars {
			return nil, &Error{Err: fmt.Errorf("input %d is %d chars, model limit is %d (chunk size misconfigured)",
				i, utf8.RuneCountInString(text), e.maxInputChars)}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff(e.retryDelay, attempt)):
			case <-ctx.Done():
				return nil, &Error{Retryable: true, Err: ctx.Err()}
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		resp, err := e.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: e.model,
		})
		cancel()

		if err != nil {
			if !isTransient(err) {
				return nil, &Error{Err: err}
			}
			lastErr = err
			continue
		}
		if len(resp.Data) != len(texts) {
			lastErr = fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
			continue
		}
		vecs := make([][]float32, len(texts))
		for _, d := range resp.Data {
			if len(d.Embedding) != e.dimensions {
				// Wrong width means the model and store disagree; retrying cannot help.
				return nil, &Error{Err: fmt.Errorf("model returned %d dimensions, configured %d", len(d.Embedding), e.dimensions)}
			}
			vecs[d.Index] = d.Embedding
		}
		return vecs, nil
	}
	return nil, &Error{Retryable: true, Err: fmt.Errorf("after %d attempts: %w", e.maxRetries+1, lastErr)}
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op for the remote client.
func (e *OpenAIEmbedder) Close() error { return nil }

// isTransient classifies provider errors: rate limits, server errors, and
// timeouts are retryable; everything else (bad request, auth, quota) is not.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	// Network-level failures surface as plain errors from the HTTP client.
	return true
}

// backoff returns exponential backoff with jitter, capped at 30 seconds.
func backoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := baseDelay * time.Duration(1<<uint(attempt))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}
