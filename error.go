// Package errboundary translates failures raised anywhere below the HTTP
// boundary into one client-facing envelope: a status line, a stable code and
// a human message. Expected failures keep their safe detail; unclassified
// ones are reduced to INTERNAL_ERROR and logged for operators.
package errboundary

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags the variant held by a Failure.
type Kind int

const (
	KindUnclassified Kind = iota
	KindRouteNotFound
	KindMethodNotSupported
	KindBodyUnreadable
	KindMissingParameter
	KindUploadTooLarge
	KindBadRequest
	KindValidationFailed
	KindRateLimited
	KindFirewallRejected
	KindAccessDenied
	KindUnauthenticated
	KindCustom
)

var kindNames = [...]string{
	KindUnclassified:       "unclassified",
	KindRouteNotFound:      "route_not_found",
	KindMethodNotSupported: "method_not_supported",
	KindBodyUnreadable:     "body_unreadable",
	KindMissingParameter:   "missing_parameter",
	KindUploadTooLarge:     "upload_too_large",
	KindBadRequest:         "bad_request",
	KindValidationFailed:   "validation_failed",
	KindRateLimited:        "rate_limited",
	KindFirewallRejected:   "firewall_rejected",
	KindAccessDenied:       "access_denied",
	KindUnauthenticated:    "unauthenticated",
	KindCustom:             "custom",
}

// Kinds lists every variant, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FieldViolation is the output of a validation framework for one field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Failure is a request-scoped failure event. Build one with the constructor
// for its kind; fields that do not apply to the kind stay zero.
type Failure struct {
	Kind Kind

	// Message is the event's own message.
	Message string
	// Cause is the lower-level error the event wraps, if any. For the
	// bad-request family a non-nil Cause supplies the client message.
	Cause error

	Violations []FieldViolation
	Param      string
	Limit      int64

	// Code and Status are set for KindCustom. A zero Status defers to the
	// registry.
	Code   Code
	Status int
	// RetryAfter is only meaningful for KindRateLimited.
	RetryAfter time.Duration
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(f.Kind.String())
	if f.Kind == KindCustom {
		b.WriteString(" ")
		b.WriteString(string(f.Code))
	}
	if f.Message != "" {
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	if f.Cause != nil {
		fmt.Fprintf(&b, " (%v)", f.Cause)
	}
	return b.String()
}

func (f *Failure) Unwrap() error { return f.Cause }

// RouteNotFound reports that no handler matched the request path.
func RouteNotFound() *Failure {
	return &Failure{Kind: KindRouteNotFound}
}

// MethodNotSupported reports that the path exists but not for this method.
func MethodNotSupported(method string) *Failure {
	f := &Failure{Kind: KindMethodNotSupported}
	if method != "" {
		f.Message = fmt.Sprintf("Request method '%s' is not supported", method)
	}
	return f
}

// BodyUnreadable reports a request body that could not be decoded.
func BodyUnreadable(cause error) *Failure {
	return &Failure{
		Kind:    KindBodyUnreadable,
		Message: "Request body is not readable",
		Cause:   cause,
	}
}

// MissingParameter reports a required query or form parameter that is absent.
func MissingParameter(name string) *Failure {
	return &Failure{
		Kind:    KindMissingParameter,
		Message: fmt.Sprintf("Required request parameter '%s' is not present", name),
		Param:   name,
	}
}

// UploadTooLarge reports a body over the configured limit. A limit <= 0
// means the limit is unknown.
func UploadTooLarge(limit int64) *Failure {
	f := &Failure{Kind: KindUploadTooLarge, Limit: limit}
	if limit > 0 {
		f.Message = fmt.Sprintf("Maximum upload size of %d bytes exceeded", limit)
	} else {
		f.Message = "Maximum upload size exceeded"
	}
	return f
}

// BadRequest reports a generic malformed request.
func BadRequest(msg string) *Failure {
	return &Failure{Kind: KindBadRequest, Message: msg}
}

// ValidationFailed reports field-level violations. Only the first violation
// reaches the client.
func ValidationFailed(violations ...FieldViolation) *Failure {
	return &Failure{Kind: KindValidationFailed, Violations: violations}
}

// RateLimited reports a request rejected by a rate limiter. retryAfter may
// be zero.
func RateLimited(retryAfter time.Duration) *Failure {
	return &Failure{Kind: KindRateLimited, RetryAfter: retryAfter}
}

// FirewallRejected reports a request refused by the request firewall.
func FirewallRejected(reason string) *Failure {
	return &Failure{Kind: KindFirewallRejected, Message: reason}
}

// AccessDenied reports an authenticated caller without permission.
func AccessDenied() *Failure {
	return &Failure{Kind: KindAccessDenied}
}

// Unauthenticated reports a caller without valid credentials.
func Unauthenticated() *Failure {
	return &Failure{Kind: KindUnauthenticated}
}

// Custom reports a domain failure bound to a registered code.
func Custom(code Code) *Failure {
	return &Failure{Kind: KindCustom, Code: code}
}

// CustomStatus reports a domain failure with a caller-supplied status. The
// status is passed through untouched.
func CustomStatus(code Code, status int) *Failure {
	return &Failure{Kind: KindCustom, Code: code, Status: status}
}

// Unclassified wraps an error nothing else recognised.
func Unclassified(err error) *Failure {
	return &Failure{Kind: KindUnclassified, Cause: err}
}

// CustomError is the shape domain code uses to attach a code to an error.
// A zero Status means the registry decides.
type CustomError struct {
	Code   Code
	Status int
	Cause  error
}

// NewCustomError returns a CustomError for code.
func NewCustomError(code Code) *CustomError {
	return &CustomError{Code: code}
}

// WrapCustom returns a CustomError for code that wraps cause.
func WrapCustom(code Code, cause error) *CustomError {
	return &CustomError{Code: code, Cause: cause}
}

func (e *CustomError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, DefaultMessage(e.Code), e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, DefaultMessage(e.Code))
}

func (e *CustomError) Unwrap() error { return e.Cause }

// WithStatus overrides the registry status.
func (e *CustomError) WithStatus(status int) *CustomError {
	e.Status = status
	return e
}
