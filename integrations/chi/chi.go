// Package chi wires err-boundary into a chi router.
//
// Chi uses standard net/http handlers, so the boundary's handlers plug in
// directly; this package installs them in the right places.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	errboundary "github.com/blackwell-systems/err-boundary"
)

// Trace is a convenience wrapper around errboundary.TraceMiddleware.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(chi.Trace)
func Trace(next http.Handler) http.Handler {
	return errboundary.TraceMiddleware(next)
}

// Install installs the route fallbacks, the request firewall and panic
// recovery on r. Call it before registering routes, since chi requires
// middleware to come first.
//
// Example:
//
//	h := errboundary.NewHandler()
//	r := chi.NewRouter()
//	chi.Install(r, h)
//	r.Get("/user/{id}", getUser)
func Install(r chi.Router, h *errboundary.Handler) {
	r.Use(Trace, h.Firewall, h.Recover)
	r.NotFound(h.NotFound())
	r.MethodNotAllowed(h.MethodNotAllowed())
}
