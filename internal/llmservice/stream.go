package llmservice

import (
	"context"
	"sync"
)

// Stream is a pull-based sequence of answer fragments. The full answer
// is the in-order concatenation of everything read from Fragments.
// Close cancels the producer; after the channel closes, Err reports
// whether the stream ended cleanly or was cut short.
type Stream struct {
	fragments chan string
	cancel    context.CancelFunc

	mu  sync.Mutex
	err error
}

func newStream(cancel context.CancelFunc) *Stream {
	return &Stream{
		fragments: make(chan string),
		cancel:    cancel,
	}
}

// Fragments returns the channel of answer fragments. It is closed when
// generation finishes, fails, or is cancelled.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Close abandons the stream. The producer stops generating further
// fragments; no background continuation survives.
func (s *Stream) Close() {
	s.cancel()
}

// Err returns the generation error, if any. Only meaningful after the
// fragment channel has closed. A partial answer read before a non-nil
// Err must not be presented as complete.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// StaticStream yields the given text as a single fragment. Used for
// canned responses that never touch the backend, and in tests.
func StaticStream(text string) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := newStream(cancel)
	go func() {
		defer close(s.fragments)
		select {
		case s.fragments <- text:
		case <-ctx.Done():
		}
	}()
	return s
}
