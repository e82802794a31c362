package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// InstanceHandler handles instance endpoints. Instance paths appear in URLs
// as percent-encoded WBEM-URI key bindings, e.g. Foo.ID=%221%22.
type InstanceHandler struct {
	proc *service.Processor
}

// NewInstanceHandler creates a new InstanceHandler.
func NewInstanceHandler(proc *service.Processor) *InstanceHandler {
	return &InstanceHandler{proc: proc}
}

// Get returns a single instance by path.
func (h *InstanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, err := instancePathParam(r)
	if err != nil {
		handleError(w, err)
		return
	}

	inst, err := h.proc.GetInstance(path, service.GetInstanceParams{
		LocalOnly:          boolQuery(r, "local_only", false),
		IncludeQualifiers:  boolQuery(r, "include_qualifiers", false),
		IncludeClassOrigin: boolQuery(r, "include_class_origin", false),
		PropertyList:       propertyListQuery(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inst)
}

// List enumerates the instances of a class and its subclasses.
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	className, _ := url.PathUnescape(chi.URLParam(r, "class"))

	instances, err := h.proc.EnumerateInstances(namespaceParam(r), className, service.EnumerateInstancesParams{
		DeepInheritance:    boolQuery(r, "deep_inheritance", true),
		LocalOnly:          boolQuery(r, "local_only", false),
		IncludeQualifiers:  boolQuery(r, "include_qualifiers", false),
		IncludeClassOrigin: boolQuery(r, "include_class_origin", false),
		PropertyList:       propertyListQuery(r),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, instances)
}

// ListNames enumerates the instance paths of a class and its subclasses.
func (h *InstanceHandler) ListNames(w http.ResponseWriter, r *http.Request) {
	className, _ := url.PathUnescape(chi.URLParam(r, "class"))

	paths, err := h.proc.EnumerateInstanceNames(namespaceParam(r), className)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, paths)
}

// Create creates a new instance and returns its path.
func (h *InstanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var inst cim.Instance
	if err := decodeJSON(r, &inst); err != nil {
		handleError(w, err)
		return
	}

	path, err := h.proc.CreateInstance(namespaceParam(r), &inst)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, path)
}

// Modify updates the non-key properties of an existing instance.
func (h *InstanceHandler) Modify(w http.ResponseWriter, r *http.Request) {
	path, err := instancePathParam(r)
	if err != nil {
		handleError(w, err)
		return
	}

	var req struct {
		Instance     *cim.Instance `json:"instance"`
		PropertyList []string      `json:"property_list"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}
	if req.Instance == nil {
		respondError(w, http.StatusBadRequest, cim.StatusInvalidParameter, "instance is required")
		return
	}
	req.Instance.Path = path

	if err := h.proc.ModifyInstance(req.Instance, req.PropertyList); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete deletes an instance by path.
func (h *InstanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	path, err := instancePathParam(r)
	if err != nil {
		handleError(w, err)
		return
	}

	if err := h.proc.DeleteInstance(path); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
