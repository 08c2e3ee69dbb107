package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// ChunkSource yields a dispatch's output. *routing.Stream implements it.
type ChunkSource interface {
	// Next returns the next chunk, or false when the stream has ended or
	// ctx is done. A chunk with Error set is the last one.
	Next(ctx context.Context) (*providers.StreamChunk, bool)
}

// Stream formats understood by Relay.
const (
	FormatText = "text"
	FormatSSE  = "sse"
)

// RelayResult summarises one relayed stream.
type RelayResult struct {
	// Chunks is the number of chunks written to the caller.
	Chunks int

	// StreamErr is the failure the backend reported mid-stream, if any.
	StreamErr error

	// WriteErr is set when writing to the caller failed, usually because
	// it disconnected.
	WriteErr error
}

// Failed reports whether the stream ended early for any reason.
func (r RelayResult) Failed() bool {
	return r.StreamErr != nil || r.WriteErr != nil
}

// Relay forwards chunks to the caller in order, each once, flushing after
// every chunk. It never retries: a mid-stream failure ends the caller's
// stream. SSE callers get an error event; the text stream just ends.
type Relay struct {
	w       http.ResponseWriter
	format  string
	id      string
	model   string
	backend string
}

// NewTextRelay creates a relay writing the raw text fragments.
func NewTextRelay(w http.ResponseWriter, backend string) *Relay {
	return &Relay{w: w, format: FormatText, backend: backend}
}

// NewSSERelay creates a relay writing OpenAI-compatible SSE chunks.
func NewSSERelay(w http.ResponseWriter, id, model, backend string) *Relay {
	return &Relay{w: w, format: FormatSSE, id: id, model: model, backend: backend}
}

// Run writes the response headers and then every chunk of src until it ends,
// fails, or ctx is done.
func (r *Relay) Run(ctx context.Context, src ChunkSource) RelayResult {
	var res RelayResult

	if r.backend != "" {
		r.w.Header().Set(BackendHeader, r.backend)
	}
	if r.format == FormatSSE {
		SetSSEHeaders(r.w)
	} else {
		SetTextStreamHeaders(r.w)
	}
	r.w.WriteHeader(http.StatusOK)
	flush(r.w)

	for {
		chunk, ok := src.Next(ctx)
		if !ok {
			break
		}

		if chunk.Error != nil {
			res.StreamErr = chunk.Error
			if r.format == FormatSSE {
				if err := WriteSSEError(r.w, StreamError(r.backend, chunk.Error)); err != nil {
					res.WriteErr = err
				}
			}
			return res
		}

		if chunk.Delta == "" && (r.format == FormatText || chunk.FinishReason == "") {
			continue
		}

		if err := r.write(chunk, res.Chunks == 0); err != nil {
			res.WriteErr = err
			return res
		}
		res.Chunks++
	}

	if err := ctx.Err(); err != nil {
		res.WriteErr = err
		return res
	}

	if r.format == FormatSSE {
		if err := WriteSSEDone(r.w); err != nil {
			res.WriteErr = err
		}
	}
	return res
}

func (r *Relay) write(chunk *providers.StreamChunk, first bool) error {
	if r.format == FormatSSE {
		return WriteSSEChunk(r.w, FormatStreamChunk(chunk, r.model, r.id, first))
	}

	if _, err := io.WriteString(r.w, chunk.Delta); err != nil {
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	flush(r.w)
	return nil
}

// Collect drains src into a single string for callers that asked for a
// non-streaming response. It returns the text, the last finish reason and
// the number of chunks read.
func Collect(ctx context.Context, src ChunkSource) (string, string, int, error) {
	var (
		b      strings.Builder
		finish string
		chunks int
	)

	for {
		chunk, ok := src.Next(ctx)
		if !ok {
			break
		}
		if chunk.Error != nil {
			return b.String(), finish, chunks, chunk.Error
		}
		if chunk.Delta == "" && chunk.FinishReason == "" {
			continue
		}
		b.WriteString(chunk.Delta)
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		chunks++
	}

	if err := ctx.Err(); err != nil {
		return b.String(), finish, chunks, err
	}
	return b.String(), finish, chunks, nil
}
