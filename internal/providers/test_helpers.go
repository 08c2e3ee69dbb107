package providers

import (
	"strings"
	"testing"
	"time"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// streamWait bounds how long CollectStreamChunks waits for an adapter to
// close its channel.
const streamWait = 10 * time.Second

// TestConfig returns a backend configuration with a placeholder key and
// small pool limits.
func TestConfig(name, providerType string) providers.ProviderConfig {
	return TestConfigWithURL(name, providerType, "http://localhost:8080")
}

// TestConfigWithURL is TestConfig pointed at baseURL, usually a MockServer.
func TestConfigWithURL(name, providerType, baseURL string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:                name,
		Type:                providerType,
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Timeout:             5 * time.Second,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestConversation builds a conversation from role, content pairs. A trailing
// role without content is ignored.
func TestConversation(pairs ...string) []providers.Message {
	messages := make([]providers.Message, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		messages = append(messages, providers.Message{Role: pairs[i], Content: pairs[i+1]})
	}
	return messages
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
}

// CollectStreamChunks drains a stream. It returns the chunks seen before the
// first error chunk together with that error.
func CollectStreamChunks(t *testing.T, chunks <-chan *providers.StreamChunk) ([]*providers.StreamChunk, error) {
	t.Helper()

	deadline := time.NewTimer(streamWait)
	defer deadline.Stop()

	var got []*providers.StreamChunk
	for {
		select {
		case chunk, ok := <-chunks:
			switch {
			case !ok:
				return got, nil
			case chunk.Error != nil:
				return got, chunk.Error
			}
			got = append(got, chunk)
		case <-deadline.C:
			t.Fatalf("stream still open after %s", streamWait)
		}
	}
}

// ConcatenateChunks joins the text deltas of chunks.
func ConcatenateChunks(chunks []*providers.StreamChunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Delta)
	}
	return sb.String()
}
