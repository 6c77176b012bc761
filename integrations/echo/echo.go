// Package echo provides adapters for using err-boundary with Echo framework.
package echo

import (
	"errors"
	"fmt"
	"net/http"

	echofw "github.com/labstack/echo/v4"

	errboundary "github.com/blackwell-systems/err-boundary"
	"github.com/blackwell-systems/err-boundary/binding"
)

// Trace adapts the trace middleware to Echo's middleware interface.
//
// Example:
//
//	e := echo.New()
//	e.Use(Trace)
func Trace(next echofw.HandlerFunc) echofw.HandlerFunc {
	return func(c echofw.Context) error {
		var err error
		handler := errboundary.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Update context with traced request
			c.SetRequest(r)
			err = next(c)
		}))

		handler.ServeHTTP(c.Response(), c.Request())
		return err
	}
}

// Install makes h the Echo error handler and adds the request firewall.
func Install(e *echofw.Echo, h *errboundary.Handler) {
	e.HTTPErrorHandler = ErrorHandler(h)
	e.Pre(Firewall(h))
}

// Firewall runs the request firewall before routing.
func Firewall(h *errboundary.Handler) echofw.MiddlewareFunc {
	return func(next echofw.HandlerFunc) echofw.HandlerFunc {
		return func(c echofw.Context) error {
			if errboundary.RejectReason(c.Request()) != "" {
				h.OnRequestRejected(c.Response(), c.Request())
				return nil
			}
			return next(c)
		}
	}
}

// ErrorHandler returns an echo.HTTPErrorHandler that answers every error
// with an envelope.
func ErrorHandler(h *errboundary.Handler) echofw.HTTPErrorHandler {
	return func(err error, c echofw.Context) {
		if c.Response().Committed {
			return
		}
		h.HandleFailure(c.Response(), c.Request(), FailureOf(c, err))
	}
}

// Write sends an envelope for err unless the response is already committed.
// It always returns nil so handlers can return its result.
func Write(c echofw.Context, h *errboundary.Handler, err error) error {
	if c.Response().Committed {
		return nil
	}
	h.HandleFailure(c.Response(), c.Request(), FailureOf(c, err))
	return nil
}

// Bind decodes and validates the JSON body into v. The returned error is a
// Failure ready for ErrorHandler.
func Bind(c echofw.Context, v any) error {
	return binding.Decode(c.Request(), v)
}

// FailureOf maps Echo's errors onto failures. A Failure anywhere in the
// chain wins; *echo.HTTPError is mapped by status.
func FailureOf(c echofw.Context, err error) *errboundary.Failure {
	if err == nil {
		return errboundary.Unclassified(errors.New("echo: nil error"))
	}

	var f *errboundary.Failure
	if errors.As(err, &f) && f != nil {
		return f
	}

	var he *echofw.HTTPError
	if !errors.As(err, &he) {
		return errboundary.From(err)
	}

	switch he.Code {
	case http.StatusNotFound:
		return errboundary.RouteNotFound()
	case http.StatusMethodNotAllowed:
		return errboundary.MethodNotSupported(c.Request().Method)
	case http.StatusRequestEntityTooLarge:
		return errboundary.UploadTooLarge(0)
	case http.StatusBadRequest:
		if he.Internal != nil {
			return binding.FailureOf(he.Internal, nil)
		}
		return errboundary.BadRequest(fmt.Sprint(he.Message))
	case http.StatusUnauthorized:
		return errboundary.Unauthenticated()
	case http.StatusForbidden:
		return errboundary.AccessDenied()
	case http.StatusTooManyRequests:
		return errboundary.RateLimited(0)
	default:
		return errboundary.Unclassified(err)
	}
}
