package llmservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"finrag/internal/config"
)

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	var prev time.Duration
	for attempt := 0; attempt < 4; attempt++ {
		d := retryDelay(attempt)
		if d < prev {
			t.Fatalf("delay shrank at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
	if d := retryDelay(20); d != 5*time.Second {
		t.Errorf("expected 5s cap, got %v", d)
	}
	if d := retryDelay(-1); d != 200*time.Millisecond {
		t.Errorf("expected base delay for negative attempt, got %v", d)
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Revenue was 100."},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	defer server.Close()

	c, err := New(&config.LLMConfig{BaseURL: server.URL, Model: "test-model", Key: "test-key"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.Generate(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "What is the revenue?"),
	})
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if got != "Revenue was 100." {
		t.Errorf("unexpected completion: %q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestGenerateGivesUpAfterBudget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := New(&config.LLMConfig{BaseURL: server.URL, Model: "test-model", Key: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	c.maxRetries = 1

	_, err = c.Generate(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "q"),
	})
	if err == nil {
		t.Fatal("expected an error after the retry budget is spent")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("error should name the attempt count, got %v", err)
	}
}
