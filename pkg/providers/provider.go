package providers

import "context"

// Provider is the capability contract every backend adapter implements.
//
// Implementations must begin producing output incrementally rather than after
// the full completion is available, and must respect context cancellation:
// once ctx is done the adapter stops reading upstream, releases the
// connection and closes the channel.
//
// Example:
//
//	chunks, err := provider.Chat(ctx, conversation)
//	if err != nil {
//	    return err
//	}
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        return chunk.Error
//	    }
//	    fmt.Print(chunk.Delta)
//	}
type Provider interface {
	// Name returns the backend's unique, configured name. It is used as the
	// cooldown key and in diagnostics.
	Name() string

	// Type returns the adapter type (e.g., "openrouter", "gemini", "anthropic").
	Type() string

	// Chat sends the full conversation upstream and returns a channel of
	// incremental chunks.
	//
	// A failure that happens before the stream starts (bad status, network
	// error, misconfiguration) is returned as the error. A failure after the
	// stream started is delivered as a final chunk with Error set. The channel
	// is closed when the stream ends either way.
	Chat(ctx context.Context, messages []Message) (<-chan *StreamChunk, error)

	// Close releases idle connections held by the adapter.
	Close() error
}

// StreamReader is implemented by adapter-level stream decoders.
// It abstracts the underlying SSE framing used by the upstream API.
type StreamReader interface {
	// Read returns the next chunk.
	// Returns nil and io.EOF when the stream ends normally.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close closes the stream and releases resources.
	Close() error
}
