package errboundary

import (
	"fmt"
	"log/slog"
	"net/http"
)

// ClassifyFunc turns one kind of Failure into a Response.
type ClassifyFunc func(*Failure) Response

// Handler is the top-level failure boundary. It owns the table of rules per
// kind and is the only place that logs. The table is fixed at construction,
// so a Handler is safe for concurrent use.
type Handler struct {
	logger *slog.Logger
	table  map[Kind]ClassifyFunc
}

// NewHandler returns a Handler seeded with the default rule for every kind.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		logger: slog.Default(),
		table:  make(map[Kind]ClassifyFunc, len(kindNames)),
	}
	for _, k := range Kinds() {
		h.table[k] = Classify
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Classify resolves f through the table. Unknown kinds use the default rule.
func (h *Handler) Classify(f *Failure) Response {
	if f == nil {
		return Classify(nil)
	}
	fn, ok := h.table[f.Kind]
	if !ok {
		fn = Classify
	}
	return fn(f)
}

// Handle classifies err and writes exactly one envelope. A nil err writes
// 204 No Content.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	f := From(err)
	if f == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.HandleFailure(w, r, f)
}

// HandleFailure writes the envelope for f, logging unclassified failures
// with their full detail first.
func (h *Handler) HandleFailure(w http.ResponseWriter, r *http.Request, f *Failure) {
	if f != nil && f.Kind == KindUnclassified {
		h.logUnclassified(r, f)
	}
	Write(w, r, h.Classify(f))
}

func (h *Handler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

func (h *Handler) logUnclassified(r *http.Request, f *Failure) {
	attrs := []any{slog.Any("error", f.Cause), slog.String("kind", f.Kind.String())}
	if r == nil {
		h.log().Error("unknown error", attrs...)
		return
	}
	attrs = append(attrs,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	if id := TraceIDFromRequest(r); id != "" {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	h.log().ErrorContext(r.Context(), "unknown error", attrs...)
}

// Serve returns a handler that always answers with f. Route fallbacks and
// the security hooks are registered this way.
func (h *Handler) Serve(f *Failure) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.HandleFailure(w, r, f)
	}
}

// NotFound answers unmatched routes.
func (h *Handler) NotFound() http.HandlerFunc {
	return h.Serve(RouteNotFound())
}

// MethodNotAllowed answers a matched path with an unsupported method.
func (h *Handler) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.HandleFailure(w, r, MethodNotSupported(r.Method))
	}
}

// Recover turns panics in next into failures. A panic carrying a Failure
// keeps its kind; anything else is unclassified. If next had already started
// the response, the failure is logged but no envelope is appended.
func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(committer); !ok {
			w = &trackingWriter{ResponseWriter: w}
		}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			h.HandleFailure(w, r, From(err))
		}()
		next.ServeHTTP(w, r)
	})
}

// trackingWriter records whether the response has started, so Write can
// leave it alone.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(status int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Written() bool { return t.wrote }

// Unwrap lets http.ResponseController reach the underlying writer.
func (t *trackingWriter) Unwrap() http.ResponseWriter { return t.ResponseWriter }
