// Package routing provides test doubles for the routing package.
package routing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// Call scripts one invocation of a MockProvider.
type Call struct {
	// Chunks are streamed in order when Err is nil.
	Chunks []string

	// Err is returned from Chat before any stream starts.
	Err error

	// StreamErr is sent as the last chunk, after Chunks.
	StreamErr error

	// Block holds the stream open until the context is cancelled.
	Block bool
}

// MockProvider is a scripted backend. Each Chat call consumes the next Call;
// once the script runs out the last Call repeats. An empty script streams
// "<name>" once.
type MockProvider struct {
	name     string
	provType string

	mu       sync.Mutex
	script   []Call
	messages [][]providers.Message

	calls  atomic.Int64
	closed atomic.Bool
}

// NewMockProvider creates a mock backend with the given name and script.
func NewMockProvider(name string, script ...Call) *MockProvider {
	return &MockProvider{
		name:     name,
		provType: "mock",
		script:   script,
	}
}

// RateLimited returns a mock whose every call fails with HTTP 429.
func RateLimited(name string) *MockProvider {
	return NewMockProvider(name, Call{Err: &providers.RateLimitError{
		Provider: name,
		Message:  "Error: 429 Too Many Requests",
	}})
}

// Failing returns a mock whose every call fails with the given status.
func Failing(name string, status int, message string) *MockProvider {
	return NewMockProvider(name, Call{Err: &providers.ProviderError{
		Provider:   name,
		StatusCode: status,
		Message:    message,
	}})
}

// Streaming returns a mock that streams chunks on every call.
func Streaming(name string, chunks ...string) *MockProvider {
	return NewMockProvider(name, Call{Chunks: chunks})
}

// Script replaces the remaining script.
func (m *MockProvider) Script(calls ...Call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = calls
}

// Name returns the backend name.
func (m *MockProvider) Name() string { return m.name }

// Type returns "mock".
func (m *MockProvider) Type() string { return m.provType }

// Calls returns how many times Chat was invoked.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool { return m.closed.Load() }

// Messages returns the conversations received, in call order.
func (m *MockProvider) Messages() [][]providers.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]providers.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Chat plays the next scripted call.
func (m *MockProvider) Chat(ctx context.Context, messages []providers.Message) (<-chan *providers.StreamChunk, error) {
	m.calls.Add(1)

	m.mu.Lock()
	m.messages = append(m.messages, messages)
	call := Call{Chunks: []string{m.name}}
	if len(m.script) > 0 {
		call = m.script[0]
		if len(m.script) > 1 {
			m.script = m.script[1:]
		}
	}
	m.mu.Unlock()

	if call.Err != nil {
		return nil, call.Err
	}

	ch := make(chan *providers.StreamChunk)
	go func() {
		defer close(ch)

		send := func(c *providers.StreamChunk) bool {
			select {
			case ch <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, text := range call.Chunks {
			if !send(&providers.StreamChunk{Delta: text}) {
				return
			}
		}
		if call.StreamErr != nil {
			send(&providers.StreamChunk{Error: call.StreamErr})
			return
		}
		if call.Block {
			<-ctx.Done()
			return
		}
		send(&providers.StreamChunk{FinishReason: providers.FinishReasonStop})
	}()

	return ch, nil
}

// Close marks the mock closed.
func (m *MockProvider) Close() error {
	m.closed.Store(true)
	return nil
}
