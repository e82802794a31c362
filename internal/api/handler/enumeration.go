package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/cimlab/wbemsim/internal/cim"
	"github.com/cimlab/wbemsim/internal/service"
)

// EnumerationHandler handles the open/pull/close enumeration protocol.
type EnumerationHandler struct {
	proc *service.Processor
}

// NewEnumerationHandler creates a new EnumerationHandler.
func NewEnumerationHandler(proc *service.Processor) *EnumerationHandler {
	return &EnumerationHandler{proc: proc}
}

// openRequest is the shared body of every open endpoint. Each endpoint
// reads the fields relevant to its operation and ignores the rest.
type openRequest struct {
	ClassName    string            `json:"classname,omitempty"`
	InstancePath *cim.InstancePath `json:"instance_path,omitempty"`

	DeepInheritance    bool     `json:"deep_inheritance,omitempty"`
	IncludeClassOrigin bool     `json:"include_class_origin,omitempty"`
	PropertyList       []string `json:"property_list,omitempty"`

	AssocClass  string `json:"assoc_class,omitempty"`
	ResultClass string `json:"result_class,omitempty"`
	Role        string `json:"role,omitempty"`
	ResultRole  string `json:"result_role,omitempty"`

	QueryLanguage string `json:"query_language,omitempty"`
	Query         string `json:"query,omitempty"`

	MaxObjectCount      *uint32 `json:"max_object_count,omitempty"`
	OperationTimeout    *uint32 `json:"operation_timeout,omitempty"`
	ContinueOnError     bool    `json:"continue_on_error,omitempty"`
	FilterQueryLanguage string  `json:"filter_query_language,omitempty"`
	FilterQuery         string  `json:"filter_query,omitempty"`
}

func (req *openRequest) openParams() service.OpenParams {
	return service.OpenParams{
		MaxObjectCount:      req.MaxObjectCount,
		OperationTimeout:    req.OperationTimeout,
		ContinueOnError:     req.ContinueOnError,
		FilterQueryLanguage: req.FilterQueryLanguage,
		FilterQuery:         req.FilterQuery,
	}
}

func (req *openRequest) assocParams() service.AssocParams {
	return service.AssocParams{
		AssocClass:         req.AssocClass,
		ResultClass:        req.ResultClass,
		Role:               req.Role,
		ResultRole:         req.ResultRole,
		IncludeClassOrigin: req.IncludeClassOrigin,
		PropertyList:       req.PropertyList,
	}
}

// sourcePath resolves the request's source instance path for the
// association open endpoints.
func (req *openRequest) sourcePath(namespace string) (*cim.InstancePath, error) {
	if req.InstancePath == nil {
		return nil, cim.Errorf(cim.StatusInvalidParameter, "instance_path is required")
	}
	if req.InstancePath.Namespace == "" {
		req.InstancePath.Namespace = namespace
	}
	return req.InstancePath, nil
}

// OpenInstances opens an instance enumeration sequence.
func (h *EnumerationHandler) OpenInstances(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	result, err := h.proc.OpenEnumerateInstances(namespaceParam(r), req.ClassName, service.EnumerateInstancesParams{
		DeepInheritance:    req.DeepInheritance,
		IncludeClassOrigin: req.IncludeClassOrigin,
		PropertyList:       req.PropertyList,
	}, req.openParams())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// OpenInstancePaths opens an instance path enumeration sequence.
func (h *EnumerationHandler) OpenInstancePaths(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	result, err := h.proc.OpenEnumerateInstancePaths(namespaceParam(r), req.ClassName, req.openParams())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// OpenReferences opens a reference instance sequence.
func (h *EnumerationHandler) OpenReferences(w http.ResponseWriter, r *http.Request) {
	h.openAssoc(w, r, h.proc.OpenReferenceInstances)
}

// OpenReferencePaths opens a reference path sequence.
func (h *EnumerationHandler) OpenReferencePaths(w http.ResponseWriter, r *http.Request) {
	h.openAssoc(w, r, h.proc.OpenReferenceInstancePaths)
}

// OpenAssociators opens an associator instance sequence.
func (h *EnumerationHandler) OpenAssociators(w http.ResponseWriter, r *http.Request) {
	h.openAssoc(w, r, h.proc.OpenAssociatorInstances)
}

// OpenAssociatorPaths opens an associator path sequence.
func (h *EnumerationHandler) OpenAssociatorPaths(w http.ResponseWriter, r *http.Request) {
	h.openAssoc(w, r, h.proc.OpenAssociatorInstancePaths)
}

func (h *EnumerationHandler) openAssoc(
	w http.ResponseWriter,
	r *http.Request,
	open func(*cim.InstancePath, service.AssocParams, service.OpenParams) (*service.PullResult, error),
) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	source, err := req.sourcePath(namespaceParam(r))
	if err != nil {
		handleError(w, err)
		return
	}

	result, err := open(source, req.assocParams(), req.openParams())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// OpenQuery opens a query result sequence.
func (h *EnumerationHandler) OpenQuery(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	result, err := h.proc.OpenQueryInstances(namespaceParam(r), req.QueryLanguage, req.Query, req.openParams())
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// pullRequest selects the pull shape and batch size for a pull call. The
// shape must match the one the sequence was opened with.
type pullRequest struct {
	PullType       string  `json:"pull_type"`
	MaxObjectCount *uint32 `json:"max_object_count,omitempty"`
}

// Pull returns the next batch of an open sequence.
func (h *EnumerationHandler) Pull(w http.ResponseWriter, r *http.Request) {
	contextID, _ := url.PathUnescape(chi.URLParam(r, "context"))

	var req pullRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err)
		return
	}

	var (
		result *service.PullResult
		err    error
	)
	switch req.PullType {
	case "", "instances_with_path":
		result, err = h.proc.PullInstancesWithPath(contextID, req.MaxObjectCount)
	case "paths":
		result, err = h.proc.PullInstancePaths(contextID, req.MaxObjectCount)
	case "instances":
		result, err = h.proc.PullInstances(contextID, req.MaxObjectCount)
	default:
		respondError(w, http.StatusBadRequest, cim.StatusInvalidParameter,
			"pull_type must be instances_with_path, paths or instances")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Close abandons an open sequence.
func (h *EnumerationHandler) Close(w http.ResponseWriter, r *http.Request) {
	contextID, _ := url.PathUnescape(chi.URLParam(r, "context"))

	if err := h.proc.CloseEnumeration(namespaceParam(r), contextID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
