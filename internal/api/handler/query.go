package handler

import (
	"net/http"

	"github.com/cimlab/wbemsim/internal/service"
)

// QueryHandler handles the ExecQuery endpoint.
type QueryHandler struct {
	proc *service.Processor
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(proc *service.Processor) *QueryHandler {
	return &QueryHandler{proc: proc}
}

// Exec executes a query against a namespace.
func (h *QueryHandler) Exec(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QueryLanguage string `json:"query_language"`
		Query         string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	instances, err := h.proc.ExecQuery(namespaceParam(r), req.QueryLanguage, req.Query)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, instances)
}
