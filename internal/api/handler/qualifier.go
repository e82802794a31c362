package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// QualifierHandler handles qualifier declaration endpoints.
type QualifierHandler struct {
	proc *service.Processor
}

// NewQualifierHandler creates a new QualifierHandler.
func NewQualifierHandler(proc *service.Processor) *QualifierHandler {
	return &QualifierHandler{proc: proc}
}

// List lists all qualifier declarations in a namespace.
func (h *QualifierHandler) List(w http.ResponseWriter, r *http.Request) {
	decls, err := h.proc.EnumerateQualifiers(namespaceParam(r))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, decls)
}

// Get returns a single qualifier declaration by name.
func (h *QualifierHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, _ := url.PathUnescape(chi.URLParam(r, "name"))

	decl, err := h.proc.GetQualifier(namespaceParam(r), name)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, decl)
}

// Set creates or replaces a qualifier declaration.
func (h *QualifierHandler) Set(w http.ResponseWriter, r *http.Request) {
	name, _ := url.PathUnescape(chi.URLParam(r, "name"))

	var decl cim.QualifierDeclaration
	if err := decodeJSON(r, &decl); err != nil {
		handleError(w, err)
		return
	}
	if decl.Name == "" {
		decl.Name = name
	} else if !cim.NameEqual(decl.Name, name) {
		respondError(w, http.StatusBadRequest, cim.StatusInvalidParameter, "qualifier name does not match URL")
		return
	}

	if err := h.proc.SetQualifier(namespaceParam(r), &decl); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &decl)
}

// Delete deletes a qualifier declaration by name.
func (h *QualifierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, _ := url.PathUnescape(chi.URLParam(r, "name"))

	if err := h.proc.DeleteQualifier(namespaceParam(r), name); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
