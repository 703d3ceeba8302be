package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"finrag/internal/config"
)

const defaultMaxRetries = 3

// Client wraps the chat-completion backend. Non-streaming calls retry
// transient failures with exponential backoff; streaming calls do not
// retry (a restarted stream would replay fragments the consumer has
// already shown).
type Client struct {
	llm        *openai.LLM
	maxRetries int
}

// New builds the chat client from the LLM config.
func New(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm, maxRetries: defaultMaxRetries}, nil
}

// Generate performs one chat completion and returns the full text.
// Temperature is pinned to zero: financial answers must be repeatable.
func (c *Client) Generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			log.Debug().Int("attempt", attempt).Msg("retrying chat completion")
		}
		resp, err := c.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion response")
			continue
		}
		return resp.Choices[0].Content, nil
	}
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Stream starts a chat completion whose fragments arrive on a channel.
// Closing the stream cancels the underlying request, so an abandoned
// answer stops costing tokens and connections.
func (c *Client) Stream(ctx context.Context, messages []llms.MessageContent) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := newStream(cancel)
	go func() {
		defer close(s.fragments)
		_, err := c.llm.GenerateContent(ctx, messages,
			llms.WithTemperature(0),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case s.fragments <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.setErr(err)
		}
	}()
	return s
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
