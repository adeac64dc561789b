package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()
	a, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "same text")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should embed identically")
		}
	}
	c, _ := e.Embed(ctx, "other text")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different text should embed differently")
	}
}

func TestMockEmbedder_UnitNorm(t *testing.T) {
	e := NewMockEmbedder(16)
	v, _ := e.Embed(context.Background(), "text")
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(sum))
	}
}

func TestMockEmbedder_BatchOrder(t *testing.T) {
	e := NewMockEmbedder(8)
	ctx := context.Background()
	vecs, err := e.EmbedBatch(ctx, []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	wantX, _ := e.Embed(ctx, "x")
	for i := range wantX {
		if vecs[0][i] != wantX[i] {
			t.Fatal("batch order should match input order")
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&Error{Retryable: true, Err: errors.New("rate limited")}) {
		t.Error("retryable error should report retryable")
	}
	if IsRetryable(&Error{Err: errors.New("oversized")}) {
		t.Error("fatal error should not report retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error should not report retryable")
	}
	wrapped := fmt.Errorf("ingest: %w", &Error{Retryable: true, Err: errors.New("x")})
	if !IsRetryable(wrapped) {
		t.Error("wrapped retryable error should report retryable")
	}
}

func TestIsTransient(t *testing.T) {
	if !isTransient(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}) {
		t.Error("429 should be transient")
	}
	if !isTransient(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError}) {
		t.Error("500 should be transient")
	}
	if isTransient(&openai.APIError{HTTPStatusCode: http.StatusBadRequest}) {
		t.Error("400 should be fatal")
	}
	if !isTransient(context.DeadlineExceeded) {
		t.Error("timeout should be transient")
	}
}

func TestOpenAIEmbedder_OversizedInput(t *testing.T) {
	e, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:        "test-key",
		Model:         "text-embedding-3-small",
		Dimensions:    1536,
		MaxInputChars: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.EmbedBatch(context.Background(), []string{"this input is longer than ten characters"})
	if err == nil {
		t.Fatal("oversized input should fail")
	}
	if IsRetryable(err) {
		t.Error("oversized input is a configuration error, not retryable")
	}
}

func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	if _, err := NewOpenAIEmbedder(OpenAIConfig{Model: "m", Dimensions: 8}); err == nil {
		t.Error("missing API key should fail")
	}
	if _, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k", Model: "m"}); err == nil {
		t.Error("zero dimensions should fail")
	}
}

func TestBackoff_Bounds(t *testing.T) {
	if backoff(0, 0) != 0 {
		t.Error("attempt 0 should not wait")
	}
	for attempt := 1; attempt < 40; attempt++ {
		d := backoff(100, attempt)
		if d < 0 || d > 40_000_000_000 { // 40s: 30s cap plus jitter headroom
			t.Fatalf("attempt %d: backoff %v out of bounds", attempt, d)
		}
	}
}
