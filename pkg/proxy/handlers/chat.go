package handlers

import (
	"net/http"
	"time"

	"github.com/ForLess01/API-RALF/pkg/proxy"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

// ChatHandler serves POST /chat: a conversation in, the reply streamed back
// as plain chunked text. When no backend can serve, the fallback message is
// streamed instead with status 200.
type ChatHandler struct {
	chatBase
}

// NewChatHandler creates the /chat handler.
func NewChatHandler(d Dispatcher, opts ...Option) *ChatHandler {
	return &ChatHandler{chatBase: newChatBase(d, opts)}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.begin(w, r, RouteChat, start) {
		return
	}

	req, err := proxy.ParseChatRequest(r, h.maxBody)
	if err != nil {
		h.reject(w, r, RouteChat, err, start)
		return
	}

	res := h.dispatch(w, r, RouteChat, types.ToProviderMessages(req.Messages), start)
	if res == nil {
		return
	}

	ctx := withBackend(r.Context(), res)
	out := proxy.NewTextRelay(w, res.Backend).Run(ctx, res.Stream)
	h.finish(ctx, RouteChat, res, out, start)
}
