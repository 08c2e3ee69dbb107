package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ForLess01/API-RALF/pkg/proxy"
	"github.com/ForLess01/API-RALF/pkg/proxy/middleware"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// CompletionsHandler serves the OpenAI-compatible POST /v1/chat/completions.
// stream=true relays SSE chunks ending in [DONE]; otherwise the stream is
// collected into a single completion.
type CompletionsHandler struct {
	chatBase
}

// NewCompletionsHandler creates the /v1/chat/completions handler.
func NewCompletionsHandler(d Dispatcher, opts ...Option) *CompletionsHandler {
	return &CompletionsHandler{chatBase: newChatBase(d, opts)}
}

// ServeHTTP implements http.Handler.
func (h *CompletionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.begin(w, r, RouteCompletions, start) {
		return
	}

	req, err := proxy.ParseChatCompletionRequest(r, h.maxBody)
	if err != nil {
		h.reject(w, r, RouteCompletions, err, start)
		return
	}

	res := h.dispatch(w, r, RouteCompletions, types.ToProviderMessages(req.Messages), start)
	if res == nil {
		return
	}

	ctx := withBackend(r.Context(), res)
	id := completionID(r)
	model := req.Model
	if model == "" {
		model = res.Backend
	}

	if req.Stream {
		out := proxy.NewSSERelay(w, id, model, res.Backend).Run(ctx, res.Stream)
		h.finish(ctx, RouteCompletions, res, out, start)
		return
	}

	text, finish, chunks, err := proxy.Collect(ctx, res.Stream)
	out := proxy.RelayResult{Chunks: chunks}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			out.WriteErr = err
		} else {
			out.StreamErr = err
			h.writeError(ctx, w, proxy.StreamError(res.Backend, err))
		}
		h.finish(ctx, RouteCompletions, res, out, start)
		return
	}

	if res.Backend != "" {
		w.Header().Set(proxy.BackendHeader, res.Backend)
	}
	if err := proxy.WriteJSONResponse(w, http.StatusOK, proxy.FormatCompletion(id, model, res.Backend, text, finish)); err != nil {
		out.WriteErr = err
	}
	h.finish(ctx, RouteCompletions, res, out, start)
}

func completionID(r *http.Request) string {
	if id := middleware.GetRequestID(r.Context()); id != "" {
		return "chatcmpl-" + id
	}
	return "chatcmpl-" + uuid.NewString()
}

var _ Dispatcher = (*routing.Dispatcher)(nil)
