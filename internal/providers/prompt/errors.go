package prompt

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies enhancement failures.
type ErrorKind string

const (
	KindConfigMissing    ErrorKind = "config_missing"
	KindUnreachable      ErrorKind = "upstream_unreachable"
	KindEmptyResponse    ErrorKind = "upstream_empty_response"
	KindMalformedJSON    ErrorKind = "upstream_malformed_json"
	KindIncompleteResult ErrorKind = "upstream_incomplete_result"
)

// statusHints maps each kind to its default HTTP status. Callers may override.
var statusHints = map[ErrorKind]int{
	KindConfigMissing:    http.StatusInternalServerError,
	KindUnreachable:      http.StatusBadGateway,
	KindEmptyResponse:    http.StatusBadGateway,
	KindMalformedJSON:    http.StatusInternalServerError,
	KindIncompleteResult: http.StatusInternalServerError,
}

// Error is a classified enhancement failure.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prompt: %s: %v", e.Kind, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("prompt: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("prompt: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusHint returns the default HTTP status for the error kind.
func (e *Error) StatusHint() int {
	if hint, ok := statusHints[e.Kind]; ok {
		return hint
	}
	return http.StatusBadGateway
}

func newError(kind ErrorKind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// AsError unwraps err into a *Error when it carries one.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
