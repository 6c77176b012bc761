package errboundary

import "log/slog"

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for unclassified failures. A nil logger
// is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClassifier replaces the rule for one kind. A nil fn restores the
// default rule.
func WithClassifier(kind Kind, fn ClassifyFunc) Option {
	return func(h *Handler) {
		if fn == nil {
			fn = Classify
		}
		h.table[kind] = fn
	}
}
