package providers

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// maxSSELineSize bounds a single SSE line. Upstream chunks are small, but
// some APIs put whole candidate objects on one line.
const maxSSELineSize = 1 << 20

// ChunkDecoder converts one SSE data payload into a chunk.
//
// Returning (nil, nil) skips the payload. Returning a *ParseError logs a
// warning and skips the payload. Any other error terminates the stream.
type ChunkDecoder func(data []byte) (*StreamChunk, error)

// SSEStream reads Server-Sent Events from an upstream response body and
// decodes each data payload with an adapter-supplied decoder.
type SSEStream struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	decode   ChunkDecoder
	closed   bool
}

// NewSSEStream wraps body. The stream owns body and closes it on Close.
func NewSSEStream(provider string, body io.ReadCloser, decode ChunkDecoder) *SSEStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)

	return &SSEStream{
		provider: provider,
		body:     body,
		scanner:  scanner,
		decode:   decode,
	}
}

// Read returns the next decoded chunk.
// Returns nil, io.EOF when the stream ends normally or on "[DONE]".
func (s *SSEStream) Read(ctx context.Context) (*StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, &StreamError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()

		// Comments, event names and ids carry nothing we relay.
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil, io.EOF
		}

		chunk, err := s.decode([]byte(data))
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				slog.Warn("skipping unparseable stream chunk",
					"provider", s.provider,
					"error", parseErr.Cause,
				)
				continue
			}
			return nil, err
		}
		if chunk == nil {
			continue
		}

		return chunk, nil
	}
}

// Close closes the stream and releases the upstream connection.
func (s *SSEStream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true
	return s.body.Close()
}

// Pump drains stream into a channel from its own goroutine.
//
// The goroutine exits, closes the stream and closes the channel when the
// stream ends, fails, or ctx is done. A failure is delivered as a final chunk
// with Error set unless the consumer has already gone away.
func Pump(ctx context.Context, stream StreamReader) <-chan *StreamChunk {
	chunks := make(chan *StreamChunk, 16)

	go func() {
		defer close(chunks)
		defer stream.Close()

		for {
			chunk, err := stream.Read(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case chunks <- &StreamChunk{Error: err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks
}
