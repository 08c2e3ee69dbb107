package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ForLess01/API-RALF/pkg/proxy"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

// BackendsHandler serves GET /backends: every backend with its status,
// cooldown remaining and whether it heads the rotation, plus dispatch stats.
type BackendsHandler struct {
	dispatcher Dispatcher
}

// NewBackendsHandler creates the /backends handler.
func NewBackendsHandler(d Dispatcher) *BackendsHandler {
	return &BackendsHandler{dispatcher: d}
}

// ServeHTTP implements http.Handler.
func (h *BackendsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, r, types.NewMethodNotAllowedError(r.Method))
		return
	}
	writeJSON(w, r, http.StatusOK, h.dispatcher.Status())
}

// ResetHandler serves POST /backends/{name}/reset, clearing the named
// backend's cooldown.
type ResetHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewResetHandler creates the reset handler. It must be registered on a
// pattern with a {name} wildcard.
func NewResetHandler(d Dispatcher) *ResetHandler {
	return &ResetHandler{
		dispatcher: d,
		logger:     slog.Default().With("component", "proxy.handlers"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, types.NewMethodNotAllowedError(r.Method))
		return
	}

	name := r.PathValue("name")
	if err := h.dispatcher.Reset(name); err != nil {
		writeError(w, r, proxy.HandleError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "backend reset by operator", "backend", name)
	writeJSON(w, r, http.StatusOK, types.ResetResponse{Backend: name, Status: "healthy"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	if err := proxy.WriteJSONResponse(w, code, v); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, errResp *types.ErrorResponse) {
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}
