package routing

import (
	"context"
	"sync"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// Stream is the output handed from the dispatcher to the relay.
//
// For a served request it replays the chunk the dispatcher peeked and then
// drains the backend's channel. For a fallback it yields the fallback text
// once.
//
// A served stream reports its dispatch to the observers when it ends: the
// channel closes, an error chunk arrives, ctx is done while waiting, or the
// reader calls Finish. Only the first of these counts.
type Stream struct {
	first *providers.StreamChunk
	rest  <-chan *providers.StreamChunk

	once  sync.Once
	onEnd func(err error)
}

func newBackendStream(first *providers.StreamChunk, rest <-chan *providers.StreamChunk) *Stream {
	return &Stream{first: first, rest: rest}
}

func newFallbackStream(text string) *Stream {
	return &Stream{first: &providers.StreamChunk{Delta: text, FinishReason: providers.FinishReasonStop}}
}

// Next returns the next chunk, or false when the stream has ended or ctx is
// done. A chunk with Error set is the last one.
func (s *Stream) Next(ctx context.Context) (*providers.StreamChunk, bool) {
	if s.first != nil {
		c := s.first
		s.first = nil
		return c, true
	}
	if s.rest == nil {
		s.end(nil)
		return nil, false
	}

	select {
	case c, ok := <-s.rest:
		if !ok {
			s.rest = nil
			s.end(nil)
			return nil, false
		}
		if c != nil && c.Error != nil {
			s.end(c.Error)
		}
		return c, true
	case <-ctx.Done():
		s.end(ctx.Err())
		return nil, false
	}
}

// Finish ends the stream on behalf of a reader that stops early, for example
// because the caller went away. err is recorded as the stream failure; nil
// means the reader considers the response complete.
func (s *Stream) Finish(err error) {
	s.end(err)
}

func (s *Stream) end(err error) {
	if s == nil || s.onEnd == nil {
		return
	}
	s.once.Do(func() { s.onEnd(err) })
}
