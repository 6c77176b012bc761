package echo

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	errboundary "github.com/blackwell-systems/err-boundary"
	"github.com/blackwell-systems/err-boundary/request"
)

func newEcho() *echo.Echo {
	h := errboundary.NewHandler()
	e := echo.New()
	Install(e, h)
	e.Use(Trace)

	e.GET("/test", func(c echo.Context) error {
		if errboundary.TraceIDFromRequest(c.Request()) == "" {
			return errors.New("missing trace id")
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/forbidden", func(c echo.Context) error {
		return Write(c, h, errboundary.AccessDenied())
	})
	e.GET("/too-many", func(c echo.Context) error {
		return echo.ErrTooManyRequests
	})
	e.GET("/unauthorized", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
	})
	e.GET("/bad", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed query")
	})
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})
	e.GET("/db", func(c echo.Context) error {
		return errors.New("pq: relation \"users\" does not exist")
	})
	e.POST("/verify", func(c echo.Context) error {
		var req request.EmailVerifyCodeRequest
		if err := Bind(c, &req); err != nil {
			return err
		}
		return c.NoContent(http.StatusAccepted)
	})
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestTrace(t *testing.T) {
	rec := serve(newEcho(), "GET", "/test", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestErrorHandlerStatuses(t *testing.T) {
	tests := []struct {
		method  string
		target  string
		status  int
		code    string
		message string
	}{
		{"GET", "/nope", http.StatusNotFound, "NOT_FOUND", "Not found"},
		{"DELETE", "/test", http.StatusNotFound, "NOT_FOUND", "Not found"},
		{"GET", "/forbidden", http.StatusForbidden, "FORBIDDEN", "Forbidden"},
		{"GET", "/too-many", http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests"},
		{"GET", "/unauthorized", http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
		{"GET", "/bad", http.StatusBadRequest, "BAD_REQUEST", "malformed query"},
		{"GET", "/teapot", http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error"},
		{"GET", "/db", http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error"},
		{"GET", "/a/..", http.StatusBadRequest, "BAD_REQUEST", "Bad request"},
	}

	e := newEcho()
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serve(e, tt.method, tt.target, "")

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			response := decode(t, rec)
			if response["code"] != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, response["code"])
			}
			if response["message"] != tt.message {
				t.Errorf("expected message %q, got %v", tt.message, response["message"])
			}
		})
	}
}

func TestBind(t *testing.T) {
	e := newEcho()

	rec := serve(e, "POST", "/verify", `{"email":"akagi@example.com","username":"akagi yui","password":"correct-horse"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if response := decode(t, rec); response["message"] != "Username can only contain letters, numbers and underscores" {
		t.Errorf("unexpected message %v", response["message"])
	}

	rec = serve(e, "POST", "/verify", "")
	if response := decode(t, rec); response["message"] != "Request body is missing" {
		t.Errorf("unexpected message %v", response["message"])
	}
}

func TestFailureOfInternal(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest("POST", "/", nil), httptest.NewRecorder())

	he := echo.NewHTTPError(http.StatusBadRequest, "Syntax error").SetInternal(errors.New("invalid character 'x'"))
	f := FailureOf(c, he)
	if f.Kind != errboundary.KindBodyUnreadable {
		t.Errorf("expected body unreadable, got %s", f.Kind)
	}
	if msg := errboundary.Classify(f).Message; msg != "invalid character 'x'" {
		t.Errorf("unexpected message %q", msg)
	}

	// A failure hidden in an HTTPError wins
	he = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(errboundary.RateLimited(0))
	if f := FailureOf(c, he); f.Kind != errboundary.KindRateLimited {
		t.Errorf("expected rate limited, got %s", f.Kind)
	}
}

func TestWriteSkipsCommittedResponse(t *testing.T) {
	h := errboundary.NewHandler()
	e := echo.New()
	e.GET("/partial", func(c echo.Context) error {
		if err := c.String(http.StatusOK, "partial"); err != nil {
			return err
		}
		return Write(c, h, errboundary.BadRequest("late"))
	})

	rec := serve(e, "GET", "/partial", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "partial" {
		t.Errorf("expected body to stay %q, got %q", "partial", rec.Body.String())
	}
}
