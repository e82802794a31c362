package handler

import (
	"net/http"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// NamespaceHandler handles namespace endpoints.
type NamespaceHandler struct {
	proc *service.Processor
}

// NewNamespaceHandler creates a new NamespaceHandler.
func NewNamespaceHandler(proc *service.Processor) *NamespaceHandler {
	return &NamespaceHandler{proc: proc}
}

// List lists all namespaces.
func (h *NamespaceHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.proc.Namespaces())
}

// Create creates a new namespace.
func (h *NamespaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, cim.StatusInvalidParameter, "name is required")
		return
	}

	if err := h.proc.AddNamespace(req.Name); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"name": cim.NormalizeNamespace(req.Name),
	})
}

// Delete deletes an empty namespace.
func (h *NamespaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.RemoveNamespace(namespaceParam(r)); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
