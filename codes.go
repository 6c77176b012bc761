package errboundary

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// ErrCodeConflict is returned by Register when a code is already bound to a
// different status or default message.
var ErrCodeConflict = errors.New("errboundary: code already registered")

// Entry is one registry row.
type Entry struct {
	Code    Code
	Status  int
	Message string
}

var (
	registryMu sync.RWMutex
	registry   = map[Code]Entry{
		CodeNotFound:        {CodeNotFound, http.StatusNotFound, "Not found"},
		CodeBadRequest:      {CodeBadRequest, http.StatusBadRequest, "Bad request"},
		CodeTooManyRequests: {CodeTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
		CodeForbidden:       {CodeForbidden, http.StatusForbidden, "Forbidden"},
		CodeUnauthorized:    {CodeUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		CodeInternal:        {CodeInternal, http.StatusInternalServerError, "Internal error"},
	}
)

// Register adds a domain-specific code. Registering the same triple twice is
// a no-op; binding an existing code to new semantics fails.
func Register(code Code, status int, msg string) error {
	if code == "" {
		return fmt.Errorf("errboundary: empty code")
	}
	if status < 100 || status > 599 {
		return fmt.Errorf("errboundary: code %s: invalid status %d", code, status)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	e := Entry{Code: code, Status: status, Message: msg}
	if existing, ok := registry[code]; ok {
		if existing == e {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrCodeConflict, code)
	}
	registry[code] = e
	return nil
}

// Lookup returns the registry row for code.
func Lookup(code Code) (Entry, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[code]
	return e, ok
}

// Status returns the HTTP status bound to code, or 500 for unknown codes.
func Status(code Code) int {
	if e, ok := Lookup(code); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// DefaultMessage returns the message bound to code. Unknown codes get the
// INTERNAL_ERROR message.
func DefaultMessage(code Code) string {
	if e, ok := Lookup(code); ok {
		return e.Message
	}
	e, _ := Lookup(CodeInternal)
	return e.Message
}
