package errboundary

import (
	"errors"
	"net/http"
	"strings"
)

// Sentinel outcomes for an authorization check passed to Guard.
var (
	ErrUnauthenticated = errors.New("errboundary: not authenticated")
	ErrAccessDenied    = errors.New("errboundary: access denied")
)

// allowedMethods is the firewall's method allow list.
var allowedMethods = map[string]bool{
	http.MethodDelete:  true,
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
	http.MethodPost:    true,
	http.MethodPut:     true,
}

// blockedSequences must not appear anywhere in the raw request path.
var blockedSequences = []string{
	"%2e", "%2f", "%5c", "%25", "%3b", "%00",
	";", "\\", "//", "/./", "/../",
}

// OnRequestRejected answers a request refused by the firewall. It does not
// depend on any other middleware having run.
func (h *Handler) OnRequestRejected(w http.ResponseWriter, r *http.Request) {
	h.HandleFailure(w, r, FirewallRejected(""))
}

// OnAccessDenied answers an authenticated caller lacking permission.
func (h *Handler) OnAccessDenied(w http.ResponseWriter, r *http.Request) {
	h.HandleFailure(w, r, AccessDenied())
}

// OnNotAuthenticated answers a caller without credentials.
func (h *Handler) OnNotAuthenticated(w http.ResponseWriter, r *http.Request) {
	h.HandleFailure(w, r, Unauthenticated())
}

// RejectReason returns why the firewall refuses r, or "" when r is
// acceptable.
func RejectReason(r *http.Request) string {
	if !allowedMethods[r.Method] {
		return "method not allowed: " + r.Method
	}

	raw := r.URL.EscapedPath()
	lower := strings.ToLower(raw)
	for _, seq := range blockedSequences {
		if strings.Contains(lower, seq) {
			return "path contains " + seq
		}
	}
	if strings.HasSuffix(lower, "/..") || strings.HasSuffix(lower, "/.") {
		return "path is not normalized"
	}
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c < 0x20 || c == 0x7f {
			return "path contains a control character"
		}
	}
	return ""
}

// Firewall rejects requests whose method or raw path could be interpreted
// differently by different layers.
func (h *Handler) Firewall(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := RejectReason(r); reason != "" {
			h.log().DebugContext(r.Context(), "request rejected",
				"reason", reason, "method", r.Method)
			h.OnRequestRejected(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Guard runs authorize before next. ErrUnauthenticated and ErrAccessDenied
// (or errors wrapping them) go to the matching hook; any other error is
// handled like a downstream failure.
func (h *Handler) Guard(authorize func(*http.Request) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := authorize(r)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, ErrUnauthenticated):
				h.OnNotAuthenticated(w, r)
			case errors.Is(err, ErrAccessDenied):
				h.OnAccessDenied(w, r)
			default:
				h.Handle(w, r, err)
			}
		})
	}
}
