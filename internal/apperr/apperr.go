// Package apperr classifies orchestration failures into stable kinds so that
// callers and the HTTP layer can tell expected outcomes apart without string
// matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindUnexpected covers everything not explicitly classified. It is
	// always propagated, never masked as success.
	KindUnexpected Kind = iota
	// KindForbidden means the principal lacks rights over the target tenant
	// or AWS environment. It must never leak whether the target exists.
	KindForbidden
	// KindNotFound means a referenced entity does not exist or sits outside
	// the principal's tenant scope.
	KindNotFound
	// KindBadRequest means malformed input: unknown service type, missing
	// schedule fields, unsupported metric name.
	KindBadRequest
	// KindConflict means the operation is blocked by a live reference or a
	// stale version stamp.
	KindConflict
	// KindExternalProvider means a call to the external cloud provider
	// failed. The port and call are recorded for diagnosis and retry.
	KindExternalProvider
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	case KindExternalProvider:
		return "external_provider_error"
	default:
		return "unexpected"
	}
}

// Error is the kind-tagged error carried across orchestration boundaries.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error. An already-classified error
// keeps its original kind so wrapping at outer layers never reclassifies.
func Wrap(kind Kind, msg string, err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		kind = ae.kind
	}
	return &Error{kind: kind, msg: msg, err: err}
}

// Forbidden reports a denied authorization outcome.
func Forbidden(format string, args ...any) *Error {
	return Newf(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

func BadRequest(format string, args ...any) *Error {
	return Newf(KindBadRequest, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// External reports a failed external-provider call, identifying the port and
// the call so operators can tell which side effect needs a retry.
func External(port, call string, err error) *Error {
	return &Error{
		kind: KindExternalProvider,
		msg:  fmt.Sprintf("%s.%s failed", port, call),
		err:  err,
	}
}

// KindOf extracts the kind from anywhere in the chain. Unclassified errors
// report KindUnexpected.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return KindUnexpected
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus maps an error kind onto the transport status used by the API
// layer. Unexpected errors map to 500 and are re-raised by the handler.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindExternalProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
