package handlers

import (
	"io"
	"net/http"

	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

// Banner is the body of GET /.
const Banner = "API-RALF is running"

// IndexHandler answers GET / with the banner. It is registered on the
// catch-all pattern, so every other unknown path gets a JSON 404.
type IndexHandler struct{}

// NewIndexHandler creates the index handler.
func NewIndexHandler() *IndexHandler {
	return &IndexHandler{}
}

// ServeHTTP implements http.Handler.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, types.NewNotFoundError("no route for "+r.URL.Path, ""))
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, r, types.NewMethodNotAllowedError(r.Method))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Banner)
}
