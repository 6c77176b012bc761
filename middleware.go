package errboundary

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// maxTraceIDLen bounds a client-supplied trace ID.
const maxTraceIDLen = 128

type traceKey struct{}

// TraceIDFromRequest returns the request's trace ID: a valid X-Request-Id
// header first, then whatever TraceMiddleware stored in the context.
func TraceIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := r.Header.Get(HeaderTraceID); validTraceID(id) {
		return id
	}
	return TraceIDFromContext(r.Context())
}

// TraceIDFromContext returns the trace ID stored by WithTraceID.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// WithTraceID returns ctx carrying id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceMiddleware propagates a valid incoming trace ID or mints a new one.
// Every envelope written for the request carries it, so clients can quote it
// when reporting an internal error.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderTraceID)
		if !validTraceID(id) {
			id = newTraceID()
		}
		next.ServeHTTP(w, r.WithContext(WithTraceID(r.Context(), id)))
	})
}

// validTraceID accepts short, visible-ASCII IDs; they end up in response
// headers and log lines verbatim.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}

func newTraceID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
