package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

type testPayload struct {
	Text  string `json:"text"`
	Fatal string `json:"fatal"`
}

func decodeTestPayload(data []byte) (*StreamChunk, error) {
	var p testPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &ParseError{Provider: "test", RawResponse: string(data), Cause: err}
	}
	if p.Fatal != "" {
		return nil, &ProviderError{Provider: "test", Message: p.Fatal}
	}
	if p.Text == "" {
		return nil, nil
	}
	return &StreamChunk{Delta: p.Text}, nil
}

func readAll(t *testing.T, s *SSEStream) ([]string, error) {
	t.Helper()
	var out []string
	for {
		chunk, err := s.Read(context.Background())
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, chunk.Delta)
	}
}

func TestSSEStream_Read(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{
			name: "basic events",
			body: "data: {\"text\":\"Hel\"}\n\ndata: {\"text\":\"lo\"}\n\n",
			want: []string{"Hel", "lo"},
		},
		{
			name: "done terminates",
			body: "data: {\"text\":\"a\"}\n\ndata: [DONE]\n\ndata: {\"text\":\"ignored\"}\n\n",
			want: []string{"a"},
		},
		{
			name: "comments and event lines skipped",
			body: ": OPENROUTER PROCESSING\n\nevent: message\nid: 1\ndata: {\"text\":\"x\"}\n\n",
			want: []string{"x"},
		},
		{
			name: "no space after colon",
			body: "data:{\"text\":\"y\"}\n\n",
			want: []string{"y"},
		},
		{
			name: "unparseable chunk skipped",
			body: "data: {broken\n\ndata: {\"text\":\"ok\"}\n\n",
			want: []string{"ok"},
		},
		{
			name: "empty payload skipped",
			body: "data: {\"text\":\"\"}\n\ndata: {\"text\":\"z\"}\n\n",
			want: []string{"z"},
		},
		{
			name:    "decoder error terminates",
			body:    "data: {\"text\":\"a\"}\n\ndata: {\"fatal\":\"quota\"}\n\ndata: {\"text\":\"b\"}\n\n",
			want:    []string{"a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSSEStream("test", io.NopCloser(strings.NewReader(tt.body)), decodeTestPayload)
			defer s.Close()

			got, err := readAll(t, s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSSEStream_ReadAfterClose(t *testing.T) {
	s := NewSSEStream("test", io.NopCloser(strings.NewReader("data: {\"text\":\"a\"}\n\n")), decodeTestPayload)
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := s.Read(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

type fakeStream struct {
	chunks []*StreamChunk
	err    error
	closed chan struct{}
}

func newFakeStream(err error, deltas ...string) *fakeStream {
	f := &fakeStream{err: err, closed: make(chan struct{})}
	for _, d := range deltas {
		f.chunks = append(f.chunks, &StreamChunk{Delta: d})
	}
	return f
}

func (f *fakeStream) Read(ctx context.Context) (*StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(f.chunks) == 0 {
		if f.err != nil {
			return nil, f.err
		}
		return nil, io.EOF
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c, nil
}

func (f *fakeStream) Close() error {
	close(f.closed)
	return nil
}

func TestPump(t *testing.T) {
	t.Run("delivers chunks and closes", func(t *testing.T) {
		stream := newFakeStream(nil, "a", "b", "c")
		var got []string
		for chunk := range Pump(context.Background(), stream) {
			if chunk.Error != nil {
				t.Fatalf("unexpected error chunk: %v", chunk.Error)
			}
			got = append(got, chunk.Delta)
		}
		if strings.Join(got, "") != "abc" {
			t.Errorf("got %q", got)
		}
		select {
		case <-stream.closed:
		case <-time.After(time.Second):
			t.Error("stream was not closed")
		}
	})

	t.Run("error becomes final chunk", func(t *testing.T) {
		streamErr := fmt.Errorf("connection reset")
		var last *StreamChunk
		count := 0
		for chunk := range Pump(context.Background(), newFakeStream(streamErr, "a")) {
			last = chunk
			count++
		}
		if count != 2 {
			t.Fatalf("expected 2 chunks, got %d", count)
		}
		if !errors.Is(last.Error, streamErr) {
			t.Errorf("expected final chunk to carry the error, got %v", last.Error)
		}
	})

	t.Run("cancellation stops the goroutine", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		deltas := make([]string, 100)
		for i := range deltas {
			deltas[i] = "x"
		}
		stream := newFakeStream(nil, deltas...)

		chunks := Pump(ctx, stream)
		<-chunks
		cancel()

		select {
		case <-stream.closed:
		case <-time.After(time.Second):
			t.Fatal("stream was not closed after cancellation")
		}
		for range chunks {
		}
	})
}
