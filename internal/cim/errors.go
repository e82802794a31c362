package cim

import (
	"errors"
	"fmt"
)

// StatusCode is a DSP0200 CIM status code.
type StatusCode int

// CIM status codes from DSP0200.
const (
	StatusFailed                     StatusCode = 1
	StatusAccessDenied               StatusCode = 2
	StatusInvalidNamespace           StatusCode = 3
	StatusInvalidParameter           StatusCode = 4
	StatusInvalidClass               StatusCode = 5
	StatusNotFound                   StatusCode = 6
	StatusNotSupported               StatusCode = 7
	StatusClassHasChildren           StatusCode = 8
	StatusClassHasInstances          StatusCode = 9
	StatusInvalidSuperclass          StatusCode = 10
	StatusAlreadyExists              StatusCode = 11
	StatusNoSuchProperty             StatusCode = 12
	StatusTypeMismatch               StatusCode = 13
	StatusQueryLanguageNotSupported  StatusCode = 14
	StatusInvalidQuery               StatusCode = 15
	StatusMethodNotAvailable         StatusCode = 16
	StatusMethodNotFound             StatusCode = 17
	StatusNamespaceNotEmpty          StatusCode = 20
	StatusInvalidEnumerationContext  StatusCode = 21
	StatusInvalidOperationTimeout    StatusCode = 22
	StatusPullHasBeenAbandoned       StatusCode = 23
	StatusPullCannotBeAbandoned      StatusCode = 24
	StatusFilteredEnumNotSupported   StatusCode = 25
	StatusContinuationNotSupported   StatusCode = 26
	StatusServerLimitsExceeded       StatusCode = 27
	StatusServerShuttingDown         StatusCode = 28
)

var statusNames = map[StatusCode]string{
	StatusFailed:                    "CIM_ERR_FAILED",
	StatusAccessDenied:              "CIM_ERR_ACCESS_DENIED",
	StatusInvalidNamespace:          "CIM_ERR_INVALID_NAMESPACE",
	StatusInvalidParameter:          "CIM_ERR_INVALID_PARAMETER",
	StatusInvalidClass:              "CIM_ERR_INVALID_CLASS",
	StatusNotFound:                  "CIM_ERR_NOT_FOUND",
	StatusNotSupported:              "CIM_ERR_NOT_SUPPORTED",
	StatusClassHasChildren:          "CIM_ERR_CLASS_HAS_CHILDREN",
	StatusClassHasInstances:         "CIM_ERR_CLASS_HAS_INSTANCES",
	StatusInvalidSuperclass:         "CIM_ERR_INVALID_SUPERCLASS",
	StatusAlreadyExists:             "CIM_ERR_ALREADY_EXISTS",
	StatusNoSuchProperty:            "CIM_ERR_NO_SUCH_PROPERTY",
	StatusTypeMismatch:              "CIM_ERR_TYPE_MISMATCH",
	StatusQueryLanguageNotSupported: "CIM_ERR_QUERY_LANGUAGE_NOT_SUPPORTED",
	StatusInvalidQuery:              "CIM_ERR_INVALID_QUERY",
	StatusMethodNotAvailable:        "CIM_ERR_METHOD_NOT_AVAILABLE",
	StatusMethodNotFound:            "CIM_ERR_METHOD_NOT_FOUND",
	StatusNamespaceNotEmpty:         "CIM_ERR_NAMESPACE_NOT_EMPTY",
	StatusInvalidEnumerationContext: "CIM_ERR_INVALID_ENUMERATION_CONTEXT",
	StatusInvalidOperationTimeout:   "CIM_ERR_INVALID_OPERATION_TIMEOUT",
	StatusPullHasBeenAbandoned:      "CIM_ERR_PULL_HAS_BEEN_ABANDONED",
	StatusPullCannotBeAbandoned:     "CIM_ERR_PULL_CANNOT_BE_ABANDONED",
	StatusFilteredEnumNotSupported:  "CIM_ERR_FILTERED_ENUMERATION_NOT_SUPPORTED",
	StatusContinuationNotSupported:  "CIM_ERR_CONTINUATION_ON_ERROR_NOT_SUPPORTED",
	StatusServerLimitsExceeded:      "CIM_ERR_SERVER_LIMITS_EXCEEDED",
	StatusServerShuttingDown:        "CIM_ERR_SERVER_IS_SHUTTING_DOWN",
}

// Name returns the DSP0200 symbolic name of the status code.
func (c StatusCode) Name() string {
	if n, ok := statusNames[c]; ok {
		return n
	}
	return fmt.Sprintf("CIM_ERR_%d", int(c))
}

// Error is a CIM operation failure carrying a DSP0200 status code so a
// transport layer can map it to the correct wire-level status.
type Error struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.Name()
	}
	return fmt.Sprintf("%s: %s", e.Code.Name(), e.Message)
}

// Is matches any *Error with the same status code, so errors.Is works
// against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds an Error with a formatted message.
func Errorf(code StatusCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinel errors for errors.Is dispatch. Operations return Errorf values
// carrying detail; callers compare against these.
var (
	ErrFailed                    = &Error{Code: StatusFailed}
	ErrInvalidNamespace          = &Error{Code: StatusInvalidNamespace}
	ErrInvalidParameter          = &Error{Code: StatusInvalidParameter}
	ErrInvalidClass              = &Error{Code: StatusInvalidClass}
	ErrNotFound                  = &Error{Code: StatusNotFound}
	ErrNotSupported              = &Error{Code: StatusNotSupported}
	ErrInvalidSuperclass         = &Error{Code: StatusInvalidSuperclass}
	ErrAlreadyExists             = &Error{Code: StatusAlreadyExists}
	ErrNamespaceNotEmpty         = &Error{Code: StatusNamespaceNotEmpty}
	ErrInvalidEnumerationContext = &Error{Code: StatusInvalidEnumerationContext}
	ErrInvalidOperationTimeout   = &Error{Code: StatusInvalidOperationTimeout}
	ErrQueryLanguageNotSupported = &Error{Code: StatusQueryLanguageNotSupported}
)

// StatusOf extracts the CIM status code from err, or StatusFailed if err is
// not a CIM error.
func StatusOf(err error) StatusCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return StatusFailed
}
