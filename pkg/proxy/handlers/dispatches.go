package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/journal"
	"github.com/ForLess01/API-RALF/pkg/proxy"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// DispatchesResponse is the body of GET /dispatches.
type DispatchesResponse struct {
	Records []*journal.Record `json:"records"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// DispatchesHandler serves GET /dispatches from the dispatch journal.
//
// Query parameters: limit, offset, backend, outcome and since (RFC 3339).
// With the journal disabled the route answers 503.
type DispatchesHandler struct {
	store  journal.Store
	limits config.QueryConfig
}

// NewDispatchesHandler creates the /dispatches handler. store may be nil.
func NewDispatchesHandler(store journal.Store, limits config.QueryConfig) *DispatchesHandler {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = config.DefaultJournalQueryLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = config.DefaultJournalQueryMaxLimit
	}
	return &DispatchesHandler{store: store, limits: limits}
}

// ServeHTTP implements http.Handler.
func (h *DispatchesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, r, types.NewMethodNotAllowedError(r.Method))
		return
	}
	if h.store == nil {
		writeError(w, r, types.NewServiceUnavailableError("dispatch journal is disabled", types.CodeJournalDisabled))
		return
	}

	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, proxy.HandleError(err))
		return
	}

	ctx := r.Context()
	records, err := h.store.Query(ctx, q)
	if err != nil {
		writeError(w, r, proxy.HandleError(err))
		return
	}
	total, err := h.store.Count(ctx, q)
	if err != nil {
		writeError(w, r, proxy.HandleError(err))
		return
	}

	if records == nil {
		records = []*journal.Record{}
	}
	writeJSON(w, r, http.StatusOK, DispatchesResponse{
		Records: records,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
}

func (h *DispatchesHandler) parseQuery(r *http.Request) (*journal.Query, error) {
	values := r.URL.Query()
	q := &journal.Query{
		Limit:   h.limits.DefaultLimit,
		Backend: values.Get("backend"),
		Outcome: values.Get("outcome"),
	}

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, invalidParam("limit", "limit must be a positive integer")
		}
		q.Limit = min(n, h.limits.MaxLimit)
	}

	if v := values.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, invalidParam("offset", "offset must be a non-negative integer")
		}
		q.Offset = n
	}

	switch q.Outcome {
	case "", routing.OutcomeServed, routing.OutcomeExhausted, routing.OutcomeFailed:
	default:
		return nil, invalidParam("outcome", fmt.Sprintf("outcome must be one of %s, %s or %s",
			routing.OutcomeServed, routing.OutcomeExhausted, routing.OutcomeFailed))
	}

	if v := values.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, invalidParam("since", "since must be an RFC 3339 timestamp")
		}
		q.Since = &since
	}

	return q, nil
}

func invalidParam(param, msg string) error {
	return &proxy.RequestError{Message: msg, Code: types.CodeInvalidValue, Param: param}
}
