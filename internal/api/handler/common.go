package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cimlab/wbemsim/internal/cim"
)

// errorResponse is the JSON body of every error response. Code and Status
// carry the DSP0200 status so clients can dispatch on it regardless of the
// HTTP mapping.
type errorResponse struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with an explicit CIM status.
func respondError(w http.ResponseWriter, httpStatus int, code cim.StatusCode, message string) {
	respondJSON(w, httpStatus, &errorResponse{
		Code:    int(code),
		Status:  code.Name(),
		Message: message,
	})
}

// handleError converts operation errors to HTTP errors.
func handleError(w http.ResponseWriter, err error) {
	code := cim.StatusOf(err)
	respondError(w, httpStatus(code), code, err.Error())
}

// httpStatus maps a DSP0200 status code to an HTTP status.
func httpStatus(code cim.StatusCode) int {
	switch code {
	case cim.StatusNotFound:
		return http.StatusNotFound
	case cim.StatusAlreadyExists,
		cim.StatusNamespaceNotEmpty,
		cim.StatusClassHasChildren,
		cim.StatusClassHasInstances:
		return http.StatusConflict
	case cim.StatusInvalidNamespace,
		cim.StatusInvalidParameter,
		cim.StatusInvalidClass,
		cim.StatusInvalidSuperclass,
		cim.StatusInvalidEnumerationContext,
		cim.StatusInvalidOperationTimeout,
		cim.StatusInvalidQuery,
		cim.StatusNoSuchProperty,
		cim.StatusTypeMismatch:
		return http.StatusBadRequest
	case cim.StatusNotSupported,
		cim.StatusQueryLanguageNotSupported,
		cim.StatusFilteredEnumNotSupported,
		cim.StatusContinuationNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cim.Errorf(cim.StatusInvalidParameter, "invalid request body: %v", err)
	}
	return nil
}

// namespaceParam extracts the namespace URL parameter. Namespace names
// contain slashes, so clients send them percent-encoded.
func namespaceParam(r *http.Request) string {
	ns, _ := url.PathUnescape(chi.URLParam(r, "namespace"))
	return ns
}

// boolQuery reads a boolean query parameter, falling back to def when the
// parameter is absent or malformed.
func boolQuery(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// propertyListQuery reads the repeated "property" query parameter. Absence
// means nil, which the processor treats as "all properties".
func propertyListQuery(r *http.Request) []string {
	values, ok := r.URL.Query()["property"]
	if !ok {
		return nil
	}
	list := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			list = append(list, v)
		}
	}
	return list
}

// instancePathParam parses the URL-encoded instance path parameter and
// fills in the namespace from the route when the path itself omits it.
func instancePathParam(r *http.Request) (*cim.InstancePath, error) {
	raw, err := url.PathUnescape(chi.URLParam(r, "path"))
	if err != nil {
		return nil, cim.Errorf(cim.StatusInvalidParameter, "malformed instance path %q", chi.URLParam(r, "path"))
	}
	path, err := cim.ParseInstancePath(raw)
	if err != nil {
		return nil, err
	}
	if path.Namespace == "" {
		path.Namespace = namespaceParam(r)
	}
	return path, nil
}
