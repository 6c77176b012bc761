package errboundary

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	// HeaderTraceID is the standard header name for trace/request IDs.
	HeaderTraceID = "X-Request-Id"
)

// Envelope is the response body for every classified failure.
type Envelope struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// committer is implemented by response writers that know whether headers
// already went out (gin.ResponseWriter does).
type committer interface {
	Written() bool
}

// Write renders resp as a JSON envelope. It never panics and never reports
// an error: once called, the response belongs to the envelope, and a
// response that was already committed is left alone.
func Write(w http.ResponseWriter, r *http.Request, resp Response) {
	if w == nil {
		return
	}
	defer func() { _ = recover() }()

	if c, ok := w.(committer); ok && c.Written() {
		return
	}

	env := Envelope{
		Code:    resp.Code,
		Message: resp.Message,
		TraceID: TraceIDFromRequest(r),
	}
	if env.Code == "" {
		env.Code = CodeInternal
		env.Message = DefaultMessage(CodeInternal)
	}

	if env.TraceID != "" {
		w.Header().Set(HeaderTraceID, env.TraceID)
	}

	// Set Retry-After header if specified (rate limiting)
	if resp.RetryAfter > 0 {
		seconds := int(resp.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1 // Minimum 1 second
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	status := resp.Status
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(env)
}

// std serves the package-level helpers with the default rules, logging
// through slog.Default.
var std = &Handler{}

// WriteFailure classifies f with the default rules and writes the envelope.
// Unclassified failures are logged to slog.Default first.
func WriteFailure(w http.ResponseWriter, r *http.Request, f *Failure) {
	std.HandleFailure(w, r, f)
}
