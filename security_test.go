package errboundary

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHooks(t *testing.T) {
	h, _ := newTestHandler()

	tests := []struct {
		name   string
		hook   http.HandlerFunc
		status int
		code   Code
	}{
		{"request rejected", h.OnRequestRejected, http.StatusBadRequest, CodeBadRequest},
		{"access denied", h.OnAccessDenied, http.StatusForbidden, CodeForbidden},
		{"not authenticated", h.OnNotAuthenticated, http.StatusUnauthorized, CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Called directly, with no middleware in front
			w := httptest.NewRecorder()
			tt.hook(w, httptest.NewRequest("GET", "/admin", nil))

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Code != tt.code || env.Message != DefaultMessage(tt.code) {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		method string
		target string
		reject bool
	}{
		{"GET", "/user/42", false},
		{"POST", "/files/report.v2.pdf?download=1", false},
		{"GET", "/", false},
		{"TRACE", "/user", true},
		{"GET", "/user//42", true},
		{"GET", "/a/../etc/passwd", true},
		{"GET", "/a/./b", true},
		{"GET", "/a/..", true},
		{"GET", "/a/%2e%2e/b", true},
		{"GET", "/a/%2F/b", true},
		{"GET", "/a;jsessionid=1", true},
		{"GET", "/a/%25", true},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.target, nil)
		reason := RejectReason(r)
		if (reason != "") != tt.reject {
			t.Errorf("%s %s: expected reject=%v, got reason %q", tt.method, tt.target, tt.reject, reason)
		}
	}
}

func TestFirewall(t *testing.T) {
	h, logs := newTestHandler()

	called := false
	handler := h.Firewall(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/a//b", nil))

	if called {
		t.Error("rejected request reached the handler")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Message != "Bad request" {
		t.Errorf("firewall detail must not reach the client, got %q", env.Message)
	}
	if !strings.Contains(logs.String(), "request rejected") {
		t.Errorf("expected debug log, got %q", logs.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/a/b", nil))
	if !called || w.Code != http.StatusOK {
		t.Errorf("clean request should pass, got %d", w.Code)
	}
}

func TestGuard(t *testing.T) {
	h, _ := newTestHandler()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"allowed", nil, http.StatusOK},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"wrapped unauthenticated", fmt.Errorf("token expired: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{"access denied", ErrAccessDenied, http.StatusForbidden},
		{"custom", NewCustomError(CodeTooManyRequests), http.StatusTooManyRequests},
		{"unexpected", errors.New("session store down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := h.Guard(func(*http.Request) error { return tt.err })
			handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}
