package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// ClassHandler handles class endpoints.
type ClassHandler struct {
	proc *service.Processor
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(proc *service.Processor) *ClassHandler {
	return &ClassHandler{proc: proc}
}

// Get returns a single resolved class. Query parameter defaults follow
// DSP0200 GetClass: local_only and include_qualifiers default to true.
func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	className, _ := url.PathUnescape(chi.URLParam(r, "class"))

	cls, err := h.proc.GetClass(namespaceParam(r), className, service.GetClassParams{
		LocalOnly:          boolQuery(r, "local_only", true),
		IncludeQualifiers:  boolQuery(r, "include_qualifiers", true),
		IncludeClassOrigin: boolQuery(r, "include_class_origin", false),
		PropertyList:       propertyListQuery(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cls)
}

// List enumerates classes below the optional "class" starting point.
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.proc.EnumerateClasses(namespaceParam(r), service.EnumerateClassesParams{
		ClassName:          r.URL.Query().Get("class"),
		DeepInheritance:    boolQuery(r, "deep_inheritance", false),
		LocalOnly:          boolQuery(r, "local_only", true),
		IncludeQualifiers:  boolQuery(r, "include_qualifiers", true),
		IncludeClassOrigin: boolQuery(r, "include_class_origin", false),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, classes)
}

// ListNames enumerates class names below the optional "class" starting point.
func (h *ClassHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.proc.EnumerateClassNames(
		namespaceParam(r),
		r.URL.Query().Get("class"),
		boolQuery(r, "deep_inheritance", false),
	)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, names)
}

// Create creates a new class.
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	var cls cim.Class
	if err := decodeJSON(r, &cls); err != nil {
		handleError(w, err)
		return
	}

	if err := h.proc.CreateClass(namespaceParam(r), &cls); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"classname": cls.ClassName,
	})
}

// Modify replaces an existing class definition.
func (h *ClassHandler) Modify(w http.ResponseWriter, r *http.Request) {
	var cls cim.Class
	if err := decodeJSON(r, &cls); err != nil {
		handleError(w, err)
		return
	}

	if err := h.proc.ModifyClass(namespaceParam(r), &cls); err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &cls)
}

// Delete deletes a class, its subclasses and all of their instances.
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	className, _ := url.PathUnescape(chi.URLParam(r, "class"))

	if err := h.proc.DeleteClass(namespaceParam(r), className); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
