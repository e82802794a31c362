package handler

import (
	"net/http"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// AssocHandler handles association traversal endpoints. Traversals are
// POSTed because the source object and filters do not fit in a URL.
type AssocHandler struct {
	proc *service.Processor
}

// NewAssocHandler creates a new AssocHandler.
func NewAssocHandler(proc *service.Processor) *AssocHandler {
	return &AssocHandler{proc: proc}
}

// assocRequest is the body of every traversal endpoint. Exactly one of
// InstancePath and ClassName selects the source object.
type assocRequest struct {
	InstancePath *cim.InstancePath `json:"instance_path,omitempty"`
	ClassName    string            `json:"classname,omitempty"`

	AssocClass  string `json:"assoc_class,omitempty"`
	ResultClass string `json:"result_class,omitempty"`
	Role        string `json:"role,omitempty"`
	ResultRole  string `json:"result_role,omitempty"`

	IncludeQualifiers  bool     `json:"include_qualifiers,omitempty"`
	IncludeClassOrigin bool     `json:"include_class_origin,omitempty"`
	PropertyList       []string `json:"property_list,omitempty"`
}

// source resolves the request's source object path, defaulting the
// namespace from the URL.
func (req *assocRequest) source(namespace string) (cim.ObjectPath, error) {
	switch {
	case req.InstancePath != nil:
		if req.InstancePath.Namespace == "" {
			req.InstancePath.Namespace = namespace
		}
		return req.InstancePath, nil
	case req.ClassName != "":
		return &cim.ClassPath{Namespace: namespace, ClassName: req.ClassName}, nil
	default:
		return nil, cim.Errorf(cim.StatusInvalidParameter, "instance_path or classname is required")
	}
}

func (req *assocRequest) params() service.AssocParams {
	return service.AssocParams{
		AssocClass:         req.AssocClass,
		ResultClass:        req.ResultClass,
		Role:               req.Role,
		ResultRole:         req.ResultRole,
		IncludeQualifiers:  req.IncludeQualifiers,
		IncludeClassOrigin: req.IncludeClassOrigin,
		PropertyList:       req.PropertyList,
	}
}

// assocObjects is the response of the object-returning traversals. An
// instance source fills Instances, a class source fills Classes.
type assocObjects struct {
	Instances []*cim.Instance `json:"instances,omitempty"`
	Classes   []*cim.Class    `json:"classes,omitempty"`
}

// References returns the association objects referring to the source.
func (h *AssocHandler) References(w http.ResponseWriter, r *http.Request) {
	req, source, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	instances, classes, err := h.proc.References(source, req.params())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &assocObjects{Instances: instances, Classes: classes})
}

// ReferenceNames returns the paths of the association objects referring to
// the source.
func (h *AssocHandler) ReferenceNames(w http.ResponseWriter, r *http.Request) {
	req, source, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	paths, err := h.proc.ReferenceNames(source, req.params())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, paths)
}

// Associators returns the objects at the far end of associations crossing
// the source.
func (h *AssocHandler) Associators(w http.ResponseWriter, r *http.Request) {
	req, source, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	instances, classes, err := h.proc.Associators(source, req.params())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &assocObjects{Instances: instances, Classes: classes})
}

// AssociatorNames returns the paths of the objects at the far end of
// associations crossing the source.
func (h *AssocHandler) AssociatorNames(w http.ResponseWriter, r *http.Request) {
	req, source, ok := h.decodeSource(w, r)
	if !ok {
		return
	}

	paths, err := h.proc.AssociatorNames(source, req.params())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, paths)
}

func (h *AssocHandler) decodeSource(w http.ResponseWriter, r *http.Request) (*assocRequest, cim.ObjectPath, bool) {
	var req assocRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return nil, nil, false
	}
	source, err := req.source(namespaceParam(r))
	if err != nil {
		handleError(w, err)
		return nil, nil, false
	}
	return &req, source, true
}
