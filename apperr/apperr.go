// Package apperr defines the error taxonomy shared by all controllers:
// validation, not-found, conflict, permission and dependency failures.
// Conflicts carry business detail verbatim so the UI can explain them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindPermission
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPermission:
		return "permission"
	case KindDependency:
		return "dependency"
	default:
		return "unknown"
	}
}

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

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error   { return newf(KindConflict, format, args...) }
func Permission(format string, args ...any) *Error { return newf(KindPermission, format, args...) }

// Dependency wraps a best-effort failure. Callers log these and move on;
// they are never surfaced as a failed request.
func Dependency(err error, format string, args ...any) *Error {
	e := newf(KindDependency, format, args...)
	e.err = err
	return e
}

// KindOf extracts the taxonomy kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsPermission(err error) bool { return KindOf(err) == KindPermission }

// Respond writes the gin error response matching the error's kind.
func Respond(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch KindOf(err) {
	case KindValidation:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindConflict:
		status = http.StatusConflict
	case KindPermission:
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
