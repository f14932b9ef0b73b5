// Package apperr defines the error kinds surfaced to HTTP clients and the
// status code each maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a category of application error.
type Kind string

const (
	DbConnectionFailed  Kind = "DbConnectionFailed"
	DbQueryFailed       Kind = "DbQueryFailed"
	DidNotValid         Kind = "DidNotValid"
	ActorNotKnown       Kind = "ActorNotKnown"
	ActorNotValid       Kind = "ActorNotValid"
	ActorIdWrong        Kind = "ActorIdWrong"
	DocumentNotKnown    Kind = "DocumentNotKnown"
	DocumentNotValid    Kind = "DocumentNotValid"
	DocumentIdWrong     Kind = "DocumentIdWrong"
	MessageNotValid     Kind = "MessageNotValid"
	ServerMisconfigured Kind = "ServerMisconfigured"
	StaleMessage        Kind = "StaleMessage"
)

// statusByKind mirrors spec §7's error-kind → status table.
var statusByKind = map[Kind]int{
	DbConnectionFailed:  http.StatusInternalServerError,
	DbQueryFailed:       http.StatusInternalServerError,
	DidNotValid:         http.StatusBadRequest,
	ActorNotKnown:       http.StatusNotFound,
	ActorNotValid:       http.StatusBadRequest,
	ActorIdWrong:        http.StatusBadRequest,
	DocumentNotKnown:    http.StatusNotFound,
	DocumentNotValid:    http.StatusBadRequest,
	DocumentIdWrong:     http.StatusBadRequest,
	MessageNotValid:     http.StatusBadRequest,
	ServerMisconfigured: http.StatusInternalServerError,
	StaleMessage:        http.StatusConflict,
}

// Error is a typed application error carrying a Kind and the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with no wrapped cause.
func New(kind Kind) *Error { return &Error{Kind: kind} }

// Wrap builds an Error of the given kind wrapping err. Returns nil if err is nil.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Status returns the HTTP status code for err, defaulting to 500 when err is
// not an *Error (store/driver failures not yet converted at the call site).
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := statusByKind[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
