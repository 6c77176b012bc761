// Package configstore is a cache-aside accessor for typed settings kept in a
// key/value table. Reads populate the cache lazily, writes replace the
// cached value together with the persisted one, and nothing ever fails: a
// setting always resolves to a defined value.
package configstore

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Known keys.
const (
	KeyRegisterEnabled = "REGISTER_ENABLED"
	KeyInitialized     = "IS_INITIALIZED"
)

// slot caches one key. Its mutex serialises every load and write of that
// key; different keys never contend.
type slot struct {
	mu     sync.Mutex
	loaded bool
	value  bool
}

// Store caches boolean settings over a Repository.
type Store struct {
	repo   Repository
	logger *slog.Logger

	slots sync.Map // string -> *slot
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for repository failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Store over repo.
func New(repo Repository, opts ...Option) *Store {
	s := &Store{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) slot(key string) *slot {
	if v, ok := s.slots.Load(key); ok {
		return v.(*slot)
	}
	v, _ := s.slots.LoadOrStore(key, &slot{})
	return v.(*slot)
}

// GetBoolean returns the setting for key. On a miss the persisted row is
// parsed and cached; a missing row is created with def first. Values other
// than "true" (any case) read as false. If the repository fails, def is
// returned and nothing is cached.
func (s *Store) GetBoolean(ctx context.Context, key string, def bool) bool {
	sl := s.slot(key)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.loaded {
		return sl.value
	}

	raw, ok, err := s.repo.Find(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "config read failed", "key", key, "error", err)
		return def
	}
	if !ok {
		if err := s.repo.Save(ctx, key, formatBool(def)); err != nil {
			s.logger.WarnContext(ctx, "config default not persisted", "key", key, "error", err)
			return def
		}
		sl.value, sl.loaded = def, true
		return def
	}

	sl.value, sl.loaded = parseBool(raw), true
	return sl.value
}

// SetBoolean persists value for key and replaces the cached value before
// returning it. If the write fails the cache entry is dropped, so the next
// read goes back to the repository.
func (s *Store) SetBoolean(ctx context.Context, key string, value bool) bool {
	sl := s.slot(key)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if err := s.repo.Save(ctx, key, formatBool(value)); err != nil {
		s.logger.WarnContext(ctx, "config write failed", "key", key, "error", err)
		sl.loaded = false
		return value
	}
	sl.value, sl.loaded = value, true
	return value
}

// IsRegisterEnabled reports whether self-registration is open. Defaults to
// true.
func (s *Store) IsRegisterEnabled(ctx context.Context) bool {
	return s.GetBoolean(ctx, KeyRegisterEnabled, true)
}

// SetRegisterEnabled opens or closes self-registration.
func (s *Store) SetRegisterEnabled(ctx context.Context, enabled bool) bool {
	return s.SetBoolean(ctx, KeyRegisterEnabled, enabled)
}

// IsInitialized reports whether first-run setup has completed. Defaults to
// false.
func (s *Store) IsInitialized(ctx context.Context) bool {
	return s.GetBoolean(ctx, KeyInitialized, false)
}

// SetInitialized records whether first-run setup has completed.
func (s *Store) SetInitialized(ctx context.Context, initialized bool) bool {
	return s.SetBoolean(ctx, KeyInitialized, initialized)
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true")
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
