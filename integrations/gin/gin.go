// Package gin provides adapters for using err-boundary with Gin framework.
package gin

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	errboundary "github.com/blackwell-systems/err-boundary"
	"github.com/blackwell-systems/err-boundary/binding"
)

// Trace wires the trace ID middleware into Gin's middleware chain.
//
// Example:
//
//	r := gin.New()
//	r.Use(Trace())
//	r.GET("/user", func(c *gin.Context) {
//	    traceID := errboundary.TraceIDFromRequest(c.Request)
//	    // ...
//	})
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Wrap remaining chain with the trace middleware
		handler := errboundary.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Update context with traced request
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Install registers NoRoute and NoMethod envelopes on engine and turns on
// method-not-allowed detection.
func Install(engine *gin.Engine, h *errboundary.Handler) {
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		h.HandleFailure(c.Writer, c.Request, errboundary.RouteNotFound())
		c.Abort()
	})
	engine.NoMethod(func(c *gin.Context) {
		h.HandleFailure(c.Writer, c.Request, errboundary.MethodNotSupported(c.Request.Method))
		c.Abort()
	})
}

// Firewall runs the request firewall as Gin middleware.
func Firewall(h *errboundary.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if errboundary.RejectReason(c.Request) != "" {
			h.OnRequestRejected(c.Writer, c.Request)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Recovery converts panics into envelopes. The panic is logged by the
// handler, not by Gin.
func Recovery(h *errboundary.Handler) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		err, ok := rec.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", rec)
		}
		h.HandleFailure(c.Writer, c.Request, errboundary.From(err))
		c.Abort()
	})
}

// Errors writes an envelope for the last error a handler attached with
// c.Error, unless the handler already wrote a response.
func Errors(h *errboundary.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		h.Handle(c.Writer, c.Request, c.Errors.Last().Err)
	}
}

// Write sends an envelope for err and aborts the chain.
//
// Example:
//
//	r.GET("/user", func(c *gin.Context) {
//	    if userID == "" {
//	        Write(c, h, errboundary.MissingParameter("id"))
//	        return
//	    }
//	    // ...
//	})
func Write(c *gin.Context, h *errboundary.Handler, err error) {
	h.Handle(c.Writer, c.Request, err)
	c.Abort()
}

// Bind decodes and validates the JSON body into v. On failure the envelope
// is already written and Bind returns false.
func Bind(c *gin.Context, h *errboundary.Handler, v any) bool {
	if err := binding.Decode(c.Request, v); err != nil {
		Write(c, h, err)
		return false
	}
	return true
}
